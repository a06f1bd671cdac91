package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// User is one purchaser account. The payment processor identifies purchasers
// by email (MNT_SUBSCRIBER_ID), so email is the lookup key for all crediting.
// CreditBalance only ever increases through the crediting path; spending
// happens elsewhere in the product.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Name          string     `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Status        string     `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	CreditBalance int64      `gorm:"not null;default:0" json:"credit_balance"`
	IsTrial       bool       `gorm:"not null;default:true" json:"is_trial"`
	LastPaidAt    *time.Time `gorm:"type:timestamp;default:null" json:"last_paid_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}
