package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a marketplace service offered by a provider. Bookings must price
// within the advertised [PriceMin, PriceMax] range.
type Service struct {
	Id          uint            `json:"id" gorm:"primaryKey"`
	ProviderId  string          `json:"provider_id" gorm:"not null;index"`
	Provider    User            `json:"-" gorm:"foreignKey:ProviderId;references:Id"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Category    string          `json:"category" gorm:"index"`
	PriceMin    decimal.Decimal `json:"price_min" gorm:"type:numeric(10,2)"`
	PriceMax    decimal.Decimal `json:"price_max" gorm:"type:numeric(10,2)"`
	Active      bool            `json:"-" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
}
