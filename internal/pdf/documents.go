package pdf

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": formatMoney,
	"date":  formatDate,
	"inc":   func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.html"))

// Header is the letterhead shared by every document.
type Header struct {
	Setting model.BusinessSetting
	// Logo is a data: URL so the page renders without network access.
	Logo template.URL
}

// NewHeader embeds logo bytes (if any and if enabled) into the letterhead.
func NewHeader(setting model.BusinessSetting, logo []byte, contentType string) Header {
	h := Header{Setting: setting}
	if setting.ShowLogo && len(logo) > 0 {
		h.Logo = template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(logo))
	}
	return h
}

type PurchaseOrderDocument struct {
	Header
	Order    model.PurchaseOrder
	Supplier model.Supplier
}

type InvoiceDocument struct {
	Header
	Sale model.Sale
}

func PurchaseOrderHTML(doc PurchaseOrderDocument) (string, error) {
	return execute("purchase_order.html", doc)
}

func InvoiceHTML(doc InvoiceDocument) (string, error) {
	return execute("invoice.html", doc)
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("pdf: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatMoney(currency string, d decimal.Decimal) string {
	return currency + " " + d.StringFixed(2)
}

func formatDate(t any) string {
	switch v := t.(type) {
	case time.Time:
		return v.Format("02 Jan 2006")
	case *time.Time:
		if v == nil {
			return "-"
		}
		return v.Format("02 Jan 2006")
	}
	return "-"
}
