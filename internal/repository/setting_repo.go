package repository

import (
	"context"
	"errors"

	"go-inventory-pos/internal/model"

	"gorm.io/gorm"
)

type SettingRepository interface {
	// Get returns the stored settings, creating the defaults on first use.
	Get(ctx context.Context) (*model.BusinessSetting, error)
	Save(ctx context.Context, setting *model.BusinessSetting) error
}

type settingRepo struct {
	db *gorm.DB
}

func NewSettingRepo(db *gorm.DB) SettingRepository {
	return &settingRepo{db}
}

func (r *settingRepo) Get(ctx context.Context) (*model.BusinessSetting, error) {
	var setting model.BusinessSetting
	err := r.db.WithContext(ctx).First(&setting, model.BusinessSettingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = model.DefaultBusinessSetting()
		if err := r.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, err
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepo) Save(ctx context.Context, setting *model.BusinessSetting) error {
	setting.ID = model.BusinessSettingID
	return r.db.WithContext(ctx).Save(setting).Error
}
