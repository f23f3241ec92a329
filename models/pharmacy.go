package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Pharmacy order statuses beyond the shared pending/confirmed/cancelled set.
const (
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
)

type Medicine struct {
	Id                   uint            `json:"id" gorm:"primaryKey"`
	Name                 string          `json:"name" gorm:"not null"`
	Description          string          `json:"description"`
	Category             string          `json:"category" gorm:"index"`
	UnitPrice            decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2)"`
	StockQuantity        int             `json:"stock_quantity" gorm:"not null;default:0"`
	RequiresPrescription bool            `json:"requires_prescription"`
	Active               bool            `json:"-" gorm:"default:true"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// PharmacyOrder is created at checkout together with its stock decrements and
// its Payment row inside one transaction.
type PharmacyOrder struct {
	ID          uint                `json:"id" gorm:"primaryKey"`
	OrderNumber string              `json:"order_number" gorm:"size:50;unique"`
	CustomerID  string              `json:"customer_id" gorm:"not null;index:idx_pharmacy_orders_customer_status,priority:1"`
	Customer    User                `json:"-" gorm:"foreignKey:CustomerID;references:Id"`
	Items       []PharmacyOrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2)"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge" gorm:"type:numeric(10,2)"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2)"`

	Status string `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending';index:idx_pharmacy_orders_customer_status,priority:2"`

	DeliveryAddress string `json:"delivery_address" gorm:"not null"`
	DeliveryPhone   string `json:"delivery_phone" gorm:"size:20"`
	CustomerNotes   string `json:"customer_notes"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *PharmacyOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber("PO")
	}
	return
}

func (o *PharmacyOrder) BeforeSave(tx *gorm.DB) (err error) {
	o.TotalAmount = o.Subtotal.Add(o.DeliveryCharge)
	return
}

type PharmacyOrderItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"-" gorm:"index"`
	MedicineID uint            `json:"medicine_id" gorm:"not null;index"`
	Medicine   Medicine        `json:"-" gorm:"foreignKey:MedicineID;references:Id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2)"`
	LineTotal  decimal.Decimal `json:"line_total" gorm:"type:numeric(10,2)"`
}
