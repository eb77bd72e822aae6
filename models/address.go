package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a delivery location. Latitude/Longitude stay nil until geocoded;
// route generation skips deliveries whose address is unresolved.
type Address struct {
	Id        string   `json:"id" gorm:"primaryKey"`
	UserId    string   `json:"user_id" gorm:"not null;index"`
	Line1     string   `json:"line1" gorm:"not null"`
	Locality  string   `json:"locality" gorm:"index"` // zone label for route grouping
	City      string   `json:"city"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsDefault bool     `json:"is_default"`
}

func (address *Address) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if address.Id == "" {
		address.Id = uuid.NewString()
	}
	return
}

// Geocoded reports whether the address has resolved coordinates.
func (address *Address) Geocoded() bool {
	return address.Latitude != nil && address.Longitude != nil
}
