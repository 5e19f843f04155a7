package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Event names pushed to connected clients.
const (
	EventStockUpdate         = "stock_update"
	EventPurchaseOrderStatus = "purchase_order_status_changed"
	EventPurchaseOrderSaved  = "purchase_order_saved"
	EventSaleRecorded        = "sale_recorded"
	EventSettingsUpdated     = "settings_updated"
	EventForceLogout         = "force_logout"
	EventUserStatus          = "user_status_update"
)

type Message struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

type Hub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run pumps register/unregister/broadcast until ctx is done.
// It must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("client connected", zap.Int("clients", count))

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds conn to the broadcast set. It returns false once the hub has stopped.
func (h *Hub) Register(conn *websocket.Conn) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues an event for every client. It never blocks; a full queue drops the event.
// A nil Hub is a no-op.
func (h *Hub) Publish(event string, payload any) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(Message{Type: event, Payload: payload, SentAt: time.Now()})
	if err != nil {
		h.log.Warn("marshal ws event", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("ws broadcast queue full, dropping event", zap.String("event", event))
	}
}

// Pending reports how many events are queued. Used by tests.
func (h *Hub) Pending() int {
	return len(h.broadcast)
}

// Next pops one queued event without a running pump. Used by tests.
func (h *Hub) Next() (Message, bool) {
	select {
	case raw := <-h.broadcast:
		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return Message{}, false
		}
		return m, true
	default:
		return Message{}, false
	}
}
