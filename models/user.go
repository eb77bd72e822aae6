package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleCustomer      = "customer"
	RoleDeliveryAgent = "delivery_agent"
	RoleAdmin         = "admin"
)

const (
	PaymentModePostpaid = "postpaid"
	PaymentModePrepaid  = "prepaid"
)

type User struct {
	Id             string  `json:"id" gorm:"primaryKey"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone" gorm:"uniqueIndex"`
	Email          string  `json:"email" gorm:"index"`
	GoogleId       string  `json:"-" gorm:"index"`
	Password       []byte  `json:"-"` // set for admin and delivery-agent accounts only
	Role           string  `json:"role" gorm:"not null;default:customer;index"`
	PaymentMode    string  `json:"payment_mode" gorm:"not null;default:postpaid"`
	PrepaidBalance float64 `json:"prepaid_balance" gorm:"type:numeric(12,2)"`
	Active         bool    `json:"active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	return
}

func (user *User) SetPassword(password string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), 12)
	user.Password = hashedPassword
}

func (user *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(user.Password, []byte(password))
}
