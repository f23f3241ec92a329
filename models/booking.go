package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Booking / order statuses shared across chargeable kinds.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusRejected   = "rejected"
)

// ServiceBooking is a marketplace service booking. TotalAmount is always
// recomputed on save from the effective price plus additional charges and is
// never written independently.
type ServiceBooking struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	PatientID  string  `json:"patient_id" gorm:"not null;index:idx_service_bookings_patient_status,priority:1"`
	Patient    User    `json:"-" gorm:"foreignKey:PatientID;references:Id"`
	ProviderID string  `json:"provider_id" gorm:"index"`
	ServiceID  uint    `json:"service_id" gorm:"not null"`
	Service    Service `json:"service" gorm:"foreignKey:ServiceID;references:Id"`

	AppointmentDate time.Time       `json:"appointment_date" gorm:"type:date;not null"`
	AppointmentTime string          `json:"appointment_time" gorm:"type:time;not null"`
	DurationHours   decimal.Decimal `json:"duration_hours" gorm:"type:numeric(4,2);default:1.0"`
	ServiceAddress  string          `json:"service_address" gorm:"not null"`

	ServicePrice      decimal.Decimal  `json:"service_price" gorm:"type:numeric(10,2)"`
	AdditionalCharges decimal.Decimal  `json:"additional_charges" gorm:"type:numeric(10,2)"`
	FinalPrice        *decimal.Decimal `json:"final_price" gorm:"type:numeric(10,2)"` // overrides ServicePrice in totals when set
	TotalAmount       decimal.Decimal  `json:"total_amount" gorm:"type:numeric(10,2)"`

	Status string `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending';index:idx_service_bookings_patient_status,priority:2"`

	PatientNotes       string `json:"patient_notes"`
	ProviderNotes      string `json:"provider_notes"`
	CancellationReason string `json:"cancellation_reason"`

	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (b *ServiceBooking) BeforeSave(tx *gorm.DB) (err error) {
	price := b.ServicePrice
	if b.FinalPrice != nil {
		price = *b.FinalPrice
	}
	b.TotalAmount = price.Add(b.AdditionalCharges)
	return
}

// Appointment is the deprecated predecessor of ServiceBooking, retained for
// historical rows only. No create route exists; it still contributes to a
// patient's gross obligation like any other booking.
type Appointment struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	PatientID  string `json:"patient_id" gorm:"not null;index"`
	ProviderID string `json:"provider_id"`
	ServiceID  uint   `json:"service_id"`

	AppointmentDate time.Time `json:"appointment_date" gorm:"type:date"`
	AppointmentTime string    `json:"appointment_time" gorm:"type:time"`
	ServiceAddress  string    `json:"service_address"`

	ServicePrice      decimal.Decimal  `json:"service_price" gorm:"type:numeric(10,2)"`
	AdditionalCharges decimal.Decimal  `json:"additional_charges" gorm:"type:numeric(10,2)"`
	FinalPrice        *decimal.Decimal `json:"final_price" gorm:"type:numeric(10,2)"`
	TotalAmount       decimal.Decimal  `json:"total_amount" gorm:"type:numeric(10,2)"`

	Status string `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
