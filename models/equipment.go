package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rental-only statuses.
const (
	StatusActive   = "active"
	StatusReturned = "returned"
)

const (
	RentalPeriodDaily   = "daily"
	RentalPeriodWeekly  = "weekly"
	RentalPeriodMonthly = "monthly"
)

// NewOrderNumber builds a short human-facing order identifier, e.g. "ER3F2A91BC".
func NewOrderNumber(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(raw[:8])
}

type Equipment struct {
	Id               uint            `json:"id" gorm:"primaryKey"`
	Name             string          `json:"name" gorm:"not null"`
	Description      string          `json:"description"`
	Category         string          `json:"category" gorm:"index"`
	Condition        string          `json:"condition" gorm:"type:VARCHAR(20);default:'excellent'"`
	PricePerDay      decimal.Decimal `json:"price_per_day" gorm:"type:numeric(10,2)"`
	RentPriceWeekly  decimal.Decimal `json:"rent_price_weekly" gorm:"type:numeric(10,2)"`
	RentPriceMonthly decimal.Decimal `json:"rent_price_monthly" gorm:"type:numeric(10,2)"`
	SecurityDeposit  decimal.Decimal `json:"security_deposit" gorm:"type:numeric(10,2)"`
	PurchasePrice    decimal.Decimal `json:"purchase_price" gorm:"type:numeric(10,2)"`
	TotalUnits       int             `json:"total_units" gorm:"default:0"`
	AvailableUnits   int             `json:"available_units" gorm:"default:0"`
	Active           bool            `json:"-" gorm:"default:true"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName pins the plural form; gorm treats "equipment" as uncountable.
func (Equipment) TableName() string { return "equipments" }

// EquipmentRental totals roll up the rental price plus deposit and any
// delivery/late/damage charges; the rollup happens on every save.
type EquipmentRental struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RentalNumber string    `json:"rental_number" gorm:"size:50;unique"`
	CustomerID   string    `json:"customer_id" gorm:"not null;index:idx_equipment_rentals_customer_status,priority:1"`
	Customer     User      `json:"-" gorm:"foreignKey:CustomerID;references:Id"`
	EquipmentID  uint      `json:"equipment_id" gorm:"not null;index"`
	Equipment    Equipment `json:"equipment" gorm:"foreignKey:EquipmentID;references:Id"`

	RentalPeriod string    `json:"rental_period" gorm:"type:VARCHAR(20);not null"`
	Quantity     int       `json:"quantity" gorm:"default:1"`
	StartDate    time.Time `json:"start_date" gorm:"type:date;not null"`
	EndDate      time.Time `json:"end_date" gorm:"type:date;not null"`

	RentalPrice     decimal.Decimal `json:"rental_price" gorm:"type:numeric(10,2)"`
	SecurityDeposit decimal.Decimal `json:"security_deposit" gorm:"type:numeric(10,2)"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge" gorm:"type:numeric(10,2)"`
	LateFee         decimal.Decimal `json:"late_fee" gorm:"type:numeric(10,2)"`
	DamageCharge    decimal.Decimal `json:"damage_charge" gorm:"type:numeric(10,2)"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2)"`

	Status string `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending';index:idx_equipment_rentals_customer_status,priority:2"`

	DeliveryAddress  string     `json:"delivery_address" gorm:"not null"`
	DeliveryPhone    string     `json:"delivery_phone" gorm:"size:20"`
	CustomerNotes    string     `json:"customer_notes"`
	ActualReturnDate *time.Time `json:"actual_return_date" gorm:"type:date"`
	CancelledAt      *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *EquipmentRental) BeforeCreate(tx *gorm.DB) (err error) {
	if r.RentalNumber == "" {
		r.RentalNumber = NewOrderNumber("ER")
	}
	return
}

func (r *EquipmentRental) BeforeSave(tx *gorm.DB) (err error) {
	r.TotalAmount = r.RentalPrice.
		Add(r.SecurityDeposit).
		Add(r.DeliveryCharge).
		Add(r.LateFee).
		Add(r.DamageCharge)
	return
}

// RentalDays counts calendar days covered by the rental, inclusive of both ends.
func (r *EquipmentRental) RentalDays() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

type EquipmentPurchase struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OrderNumber string    `json:"order_number" gorm:"size:50;unique"`
	CustomerID  string    `json:"customer_id" gorm:"not null;index:idx_equipment_purchases_customer_status,priority:1"`
	Customer    User      `json:"-" gorm:"foreignKey:CustomerID;references:Id"`
	EquipmentID uint      `json:"equipment_id" gorm:"not null;index"`
	Equipment   Equipment `json:"equipment" gorm:"foreignKey:EquipmentID;references:Id"`

	Quantity       int             `json:"quantity" gorm:"default:1"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2)"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2)"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge" gorm:"type:numeric(10,2)"`
	Discount       decimal.Decimal `json:"discount" gorm:"type:numeric(10,2)"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2)"`

	Status string `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending';index:idx_equipment_purchases_customer_status,priority:2"`

	DeliveryAddress string `json:"delivery_address" gorm:"not null"`
	DeliveryPhone   string `json:"delivery_phone" gorm:"size:20"`
	CustomerNotes   string `json:"customer_notes"`
	WarrantyMonths  int    `json:"warranty_months"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *EquipmentPurchase) BeforeCreate(tx *gorm.DB) (err error) {
	if p.OrderNumber == "" {
		p.OrderNumber = NewOrderNumber("EP")
	}
	return
}

func (p *EquipmentPurchase) BeforeSave(tx *gorm.DB) (err error) {
	p.Subtotal = p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
	p.TotalAmount = p.Subtotal.Add(p.DeliveryCharge).Sub(p.Discount)
	return
}
