package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	Id          string  `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"` // e.g. "500ml", "1L", "500g"
	UnitPrice   float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	Active      bool    `json:"active" gorm:"not null;default:true"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if product.Id == "" {
		product.Id = uuid.NewString()
	}
	return
}
