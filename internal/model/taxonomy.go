package model

type Brand struct {
	BaseModel
	SoftDelete
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required,max=100"`
	Description string `gorm:"type:text" json:"description"`
}

type Category struct {
	BaseModel
	SoftDelete
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required,max=100"`
	Description string `gorm:"type:text" json:"description"`
}

type Supplier struct {
	BaseModel
	SoftDelete
	Name          string `gorm:"type:varchar(255);not null;index" json:"name" validate:"required,max=255"`
	ContactPerson string `gorm:"type:varchar(255)" json:"contact_person"`
	Email         string `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Phone         string `gorm:"type:varchar(30)" json:"phone"`
	Address       string `gorm:"type:text" json:"address"`
	Notes         string `gorm:"type:text" json:"notes"`
}
