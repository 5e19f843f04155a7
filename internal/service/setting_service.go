package service

import (
	"context"
	"fmt"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/storage"
	"go-inventory-pos/internal/ws"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxLogoBytes = 2 << 20

var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type UpdateSettingRequest struct {
	BusinessName string  `json:"business_name" validate:"required,max=255"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone" validate:"max=30"`
	Email        string  `json:"email" validate:"omitempty,email"`
	Currency     string  `json:"currency" validate:"omitempty,len=3"`
	TaxID        string  `json:"tax_id" validate:"max=50"`
	PaperSize    string  `json:"paper_size" validate:"omitempty,oneof=A4 A5 Letter Legal"`
	Orientation  string  `json:"orientation" validate:"omitempty,oneof=portrait landscape"`
	MarginMM     float64 `json:"margin_mm" validate:"gte=0,lte=50"`
	FooterText   string  `json:"footer_text"`
	ShowLogo     bool    `json:"show_logo"`
}

type SettingService interface {
	Get(ctx context.Context) (*model.BusinessSetting, error)
	Update(ctx context.Context, req *UpdateSettingRequest, actor Actor) (*model.BusinessSetting, error)
	// UploadLogo stores a png, jpeg or webp image of at most MaxLogoBytes and replaces the old one.
	UploadLogo(ctx context.Context, data []byte, actor Actor) (*model.BusinessSetting, error)
	RemoveLogo(ctx context.Context, actor Actor) (*model.BusinessSetting, error)
	// Logo returns the stored logo bytes and their content type, or nil when none is set.
	Logo(ctx context.Context) ([]byte, string, error)
}

type settingService struct {
	repo  repository.SettingRepository
	store storage.Storage
	hub   *ws.Hub
	log   *zap.Logger
}

func NewSettingService(repo repository.SettingRepository, store storage.Storage, hub *ws.Hub, log *zap.Logger) SettingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &settingService{repo: repo, store: store, hub: hub, log: log.Named("setting")}
}

func (s *settingService) Get(ctx context.Context) (*model.BusinessSetting, error) {
	return s.repo.Get(ctx)
}

func (s *settingService) Update(ctx context.Context, req *UpdateSettingRequest, actor Actor) (*model.BusinessSetting, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	setting, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	defaults := model.DefaultBusinessSetting()
	setting.BusinessName = req.BusinessName
	setting.Address = req.Address
	setting.Phone = req.Phone
	setting.Email = req.Email
	setting.Currency = orDefault(req.Currency, defaults.Currency)
	setting.TaxID = req.TaxID
	setting.PaperSize = orDefault(req.PaperSize, defaults.PaperSize)
	setting.Orientation = orDefault(req.Orientation, defaults.Orientation)
	setting.MarginMM = req.MarginMM
	setting.FooterText = req.FooterText
	setting.ShowLogo = req.ShowLogo
	setting.UpdatedBy = actor.ID

	return s.save(ctx, setting, actor)
}

func (s *settingService) UploadLogo(ctx context.Context, data []byte, actor Actor) (*model.BusinessSetting, error) {
	if len(data) == 0 {
		return nil, validationFailed("logo file is empty")
	}
	if len(data) > MaxLogoBytes {
		return nil, validationFailed("logo must be at most 2MB")
	}
	contentType := mimetype.Detect(data).String()
	ext, ok := logoTypes[contentType]
	if !ok {
		return nil, validationFailed(fmt.Sprintf("logo must be png, jpeg or webp, got %s", contentType))
	}

	setting, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := "logo/" + uuid.NewString() + ext
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return nil, err
	}
	oldKey := setting.LogoKey
	setting.LogoKey = key
	setting.LogoURL = s.store.URL(key)
	setting.UpdatedBy = actor.ID

	saved, err := s.save(ctx, setting, actor)
	if err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	s.dropObject(ctx, oldKey)
	return saved, nil
}

func (s *settingService) RemoveLogo(ctx context.Context, actor Actor) (*model.BusinessSetting, error) {
	setting, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	oldKey := setting.LogoKey
	setting.LogoKey = ""
	setting.LogoURL = ""
	setting.UpdatedBy = actor.ID

	saved, err := s.save(ctx, setting, actor)
	if err != nil {
		return nil, err
	}
	s.dropObject(ctx, oldKey)
	return saved, nil
}

func (s *settingService) Logo(ctx context.Context) ([]byte, string, error) {
	setting, err := s.repo.Get(ctx)
	if err != nil || setting.LogoKey == "" {
		return nil, "", err
	}
	data, err := s.store.Get(ctx, setting.LogoKey)
	if err != nil {
		return nil, "", err
	}
	return data, mimetype.Detect(data).String(), nil
}

func (s *settingService) save(ctx context.Context, setting *model.BusinessSetting, actor Actor) (*model.BusinessSetting, error) {
	if err := s.repo.Save(ctx, setting); err != nil {
		return nil, err
	}
	s.log.Info("settings updated", zap.String("actor", actor.ID))
	s.hub.Publish(ws.EventSettingsUpdated, map[string]any{
		"settings": setting,
		"user":     actorPayload(actor),
	})
	return setting, nil
}

func (s *settingService) dropObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("remove old logo failed", zap.String("key", key), zap.Error(err))
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
