package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChargeableKind tags which order table a Payment belongs to. Together with
// ChargeableID it forms a single tagged-union link; the former design of five
// nullable foreign keys made "more than one link set" representable and is gone.
type ChargeableKind string

const (
	KindServiceBooking      ChargeableKind = "service_booking"
	KindAppointment         ChargeableKind = "appointment" // deprecated legacy bookings
	KindPersonalAppointment ChargeableKind = "personal_appointment"
	KindPharmacyOrder       ChargeableKind = "pharmacy_order"
	KindEquipmentPurchase   ChargeableKind = "equipment_purchase"
	KindEquipmentRental     ChargeableKind = "equipment_rental"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodOnline PaymentMethod = "online"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentPartial  PaymentStatus = "partial"
)

// ErrChargeableLink is raised when ChargeableKind and ChargeableID are not set
// together. Unlinked payments (both empty) are permitted.
var ErrChargeableLink = errors.New("chargeable kind and id must be set together")

// Payment is the ledger entry for one chargeable. Amount is fixed at creation
// to the chargeable's total. Method is locked once set; changing it requires
// an explicit override at the write site (see ledger.SetMethod).
type Payment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	PatientID string `json:"patient_id" gorm:"not null;index:idx_payments_patient_status,priority:1"`
	Patient   User   `json:"-" gorm:"foreignKey:PatientID;references:Id"`

	ChargeableKind ChargeableKind `json:"chargeable_kind" gorm:"type:VARCHAR(30);index:idx_payments_chargeable,priority:1"`
	ChargeableID   uint           `json:"chargeable_id" gorm:"index:idx_payments_chargeable,priority:2"`

	Amount decimal.Decimal `json:"amount" gorm:"type:numeric(10,2)"`
	Method PaymentMethod   `json:"payment_method" gorm:"column:payment_method;type:VARCHAR(20)"`
	Status PaymentStatus   `json:"payment_status" gorm:"column:payment_status;type:VARCHAR(20);not null;default:'unpaid';index:idx_payments_patient_status,priority:2"`

	// Online payment evidence
	TransactionID string `json:"transaction_id" gorm:"size:100"`
	ProofURL      string `json:"payment_proof_url"`

	// Verification: nil VerifiedByID with a non-nil VerifiedAt means patient
	// self-confirmation (cash after service).
	VerifiedByID *string    `json:"verified_by"`
	VerifiedAt   *time.Time `json:"verified_at"`
	PaymentDate  *time.Time `json:"payment_date"`

	Notes string `json:"notes"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeSave(tx *gorm.DB) (err error) {
	if (p.ChargeableKind == "") != (p.ChargeableID == 0) {
		return ErrChargeableLink
	}
	return
}

// HasProof reports whether any online-payment evidence was submitted.
func (p *Payment) HasProof() bool {
	return p.TransactionID != "" || p.ProofURL != ""
}

// PaymentEvent is an immutable audit row written on every payment state
// transition, with a full JSON snapshot of the payment after the change.
type PaymentEvent struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	PaymentID  uint           `json:"payment_id" gorm:"index:idx_payment_events_payment_created,priority:1"`
	Action     string         `json:"action" gorm:"type:VARCHAR(30)"`
	Actor      string         `json:"actor" gorm:"size:128"` // empty for patient self-service actions
	FromStatus string         `json:"from_status" gorm:"type:VARCHAR(20)"`
	ToStatus   string         `json:"to_status" gorm:"type:VARCHAR(20)"`
	Snapshot   datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index:idx_payment_events_payment_created,priority:2"`
}

// UserPaymentMethod stores a user's payment preferences; the default entry
// pre-fills Payment.Method at checkout.
type UserPaymentMethod struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	UserID    string        `json:"user_id" gorm:"not null;index"`
	User      User          `json:"-" gorm:"foreignKey:UserID;references:Id"`
	Method    PaymentMethod `json:"method" gorm:"type:VARCHAR(20);not null"`
	QRCodeURL string        `json:"qr_code_url"`
	BankInfo  string        `json:"bank_info"`
	IsDefault bool          `json:"is_default"`
	CreatedAt time.Time     `json:"created_at"`
}
