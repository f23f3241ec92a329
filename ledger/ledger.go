// Package ledger computes a patient's financial balance across all chargeable
// kinds (service bookings, personal appointments, pharmacy orders, equipment
// purchases and rentals) and drives payment state transitions.
//
// The package is pure over snapshot values: a Source supplies Charge and
// Record snapshots for a user, and everything else is decimal arithmetic with
// no suspension points. All monetary values are decimals; float64 never
// touches money.
package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"uhcare-backend/models"
)

// Charge is a read-only snapshot of one chargeable record: anything that
// creates a monetary obligation for a user.
type Charge struct {
	Kind   models.ChargeableKind
	ID     uint
	UserID string
	Total  decimal.Decimal
	Status string
	// Finalized is false when the stored total was never computed (legacy or
	// partially migrated rows). Such charges contribute zero to the gross.
	Finalized bool
}

// Cancelled reports whether the charge reached its terminal cancellation
// variant. Personal appointments use cancelled_by_patient/_provider; every
// other kind uses plain "cancelled", so a prefix match covers all of them.
func (c Charge) Cancelled() bool {
	return strings.HasPrefix(c.Status, "cancelled")
}

// Delivered reports whether the charge reached its domain-specific
// delivered/completed terminal, the gate for cash self-confirmation.
func (c Charge) Delivered() bool {
	switch c.Kind {
	case models.KindServiceBooking, models.KindAppointment, models.KindPersonalAppointment:
		return c.Status == models.StatusCompleted
	case models.KindPharmacyOrder, models.KindEquipmentPurchase:
		return c.Status == models.StatusDelivered
	case models.KindEquipmentRental:
		return c.Status == models.StatusReturned || c.Status == models.StatusActive
	}
	return false
}

// Record is a read-only snapshot of one Payment plus its linked charge, if any.
type Record struct {
	ID            uint
	Amount        decimal.Decimal
	Method        models.PaymentMethod
	Status        models.PaymentStatus
	TransactionID string
	ProofURL      string
	Charge        *Charge
}

// ProofSubmitted reports whether online-payment evidence exists.
func (r Record) ProofSubmitted() bool {
	return r.TransactionID != "" || r.ProofURL != ""
}

// Voided reports whether the record is tied to a cancelled chargeable and must
// be excluded from every classification bucket.
func (r Record) Voided() bool {
	return r.Charge != nil && r.Charge.Cancelled()
}

// Source supplies the per-user snapshots the ledger computes over. Both
// methods return all rows including cancelled ones; exclusion rules live here,
// not in the queries.
type Source interface {
	Charges(ctx context.Context, userID string) ([]Charge, error)
	Records(ctx context.Context, userID string) ([]Record, error)
}

// Service composes charge aggregation and payment classification over a Source.
type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

// GetBalance returns the authoritative balance view for a user. It is
// read-only and idempotent; every surface that displays balance figures must
// go through this single entry point.
func (s *Service) GetBalance(ctx context.Context, userID string) (Balance, error) {
	charges, err := s.src.Charges(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	records, err := s.src.Records(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	return Compute(charges, records), nil
}

// ClassifyPayments partitions a user's payments into display buckets.
func (s *Service) ClassifyPayments(ctx context.Context, userID string) (Classification, error) {
	records, err := s.src.Records(ctx, userID)
	if err != nil {
		return Classification{}, err
	}
	return Classify(records), nil
}
