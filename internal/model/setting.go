package model

import "time"

// BusinessSetting is a singleton row (ID is always 1).
type BusinessSetting struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	BusinessName string `gorm:"type:varchar(255)" json:"business_name" validate:"max=255"`
	Address      string `gorm:"type:text" json:"address"`
	Phone        string `gorm:"type:varchar(30)" json:"phone"`
	Email        string `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Currency     string `gorm:"type:varchar(10);default:'IDR'" json:"currency" validate:"omitempty,len=3"`
	TaxID        string `gorm:"type:varchar(50)" json:"tax_id"`
	LogoKey      string `gorm:"type:varchar(255)" json:"-"`
	LogoURL      string `gorm:"type:varchar(500)" json:"logo_url"`

	PaperSize   string  `gorm:"type:varchar(10);default:'A4'" json:"paper_size" validate:"omitempty,oneof=A4 A5 Letter Legal"`
	Orientation string  `gorm:"type:varchar(10);default:'portrait'" json:"orientation" validate:"omitempty,oneof=portrait landscape"`
	MarginMM    float64 `gorm:"default:10" json:"margin_mm" validate:"gte=0,lte=50"`
	FooterText  string  `gorm:"type:text" json:"footer_text"`
	ShowLogo    bool    `gorm:"default:true" json:"show_logo"`

	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by"`
}

const BusinessSettingID = 1

func DefaultBusinessSetting() BusinessSetting {
	return BusinessSetting{
		ID:           BusinessSettingID,
		BusinessName: "My Store",
		Currency:     "IDR",
		PaperSize:    "A4",
		Orientation:  "portrait",
		MarginMM:     10,
		ShowLogo:     true,
	}
}
