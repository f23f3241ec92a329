package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"uhcare-backend/models"
)

// GormSource reads charge and payment snapshots through a *gorm.DB. Handlers
// construct one per request over the request transaction so the snapshots are
// consistent with any writes in the same request.
type GormSource struct {
	db *gorm.DB
}

func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

// chargeRow is the common projection over all five chargeable tables.
// TotalAmount is nullable on purpose: a NULL total marks a legacy row whose
// total was never finalized.
type chargeRow struct {
	ID          uint
	TotalAmount decimal.NullDecimal
	Status      string
}

type chargeQuery struct {
	kind      models.ChargeableKind
	model     any
	selectSQL string
	ownerCol  string
}

func chargeQueries() []chargeQuery {
	return []chargeQuery{
		{models.KindServiceBooking, &models.ServiceBooking{}, "id, total_amount, status", "patient_id"},
		{models.KindAppointment, &models.Appointment{}, "id, total_amount, status", "patient_id"},
		{models.KindPersonalAppointment, &models.PersonalAppointment{}, "id, total_fee AS total_amount, status", "patient_id"},
		{models.KindPharmacyOrder, &models.PharmacyOrder{}, "id, total_amount, status", "customer_id"},
		{models.KindEquipmentPurchase, &models.EquipmentPurchase{}, "id, total_amount, status", "customer_id"},
		{models.KindEquipmentRental, &models.EquipmentRental{}, "id, total_amount, status", "customer_id"},
	}
}

// Charges returns every chargeable the user owns, cancelled ones included;
// cancellation and finalization rules are applied by the callers.
func (s *GormSource) Charges(ctx context.Context, userID string) ([]Charge, error) {
	var charges []Charge
	for _, q := range chargeQueries() {
		var rows []chargeRow
		err := s.db.WithContext(ctx).
			Model(q.model).
			Select(q.selectSQL).
			Where(q.ownerCol+" = ?", userID).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			charges = append(charges, Charge{
				Kind:      q.kind,
				ID:        row.ID,
				UserID:    userID,
				Total:     row.TotalAmount.Decimal,
				Status:    row.Status,
				Finalized: row.TotalAmount.Valid,
			})
		}
	}
	return charges, nil
}

// Records returns every payment the user owns with its linked charge attached.
func (s *GormSource) Records(ctx context.Context, userID string) ([]Record, error) {
	charges, err := s.Charges(ctx, userID)
	if err != nil {
		return nil, err
	}
	type key struct {
		kind models.ChargeableKind
		id   uint
	}
	byRef := make(map[key]*Charge, len(charges))
	for i := range charges {
		byRef[key{charges[i].Kind, charges[i].ID}] = &charges[i]
	}

	var payments []models.Payment
	err = s.db.WithContext(ctx).
		Where("patient_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(payments))
	for _, p := range payments {
		r := Record{
			ID:            p.ID,
			Amount:        p.Amount,
			Method:        p.Method,
			Status:        p.Status,
			TransactionID: p.TransactionID,
			ProofURL:      p.ProofURL,
		}
		if p.ChargeableKind != "" {
			r.Charge = byRef[key{p.ChargeableKind, p.ChargeableID}]
		}
		records = append(records, r)
	}
	return records, nil
}

// ChargeFor loads the charge snapshot linked to a payment, for transition
// guards. Returns nil when the payment is unlinked.
func ChargeFor(db *gorm.DB, p *models.Payment) (*Charge, error) {
	if p.ChargeableKind == "" {
		return nil, nil
	}
	for _, q := range chargeQueries() {
		if q.kind != p.ChargeableKind {
			continue
		}
		var row chargeRow
		err := db.Model(q.model).
			Select(q.selectSQL).
			Where("id = ?", p.ChargeableID).
			Take(&row).Error
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &Charge{
			Kind:      q.kind,
			ID:        row.ID,
			UserID:    p.PatientID,
			Total:     row.TotalAmount.Decimal,
			Status:    row.Status,
			Finalized: row.TotalAmount.Valid,
		}, nil
	}
	return nil, invalid("unknown chargeable kind " + string(p.ChargeableKind))
}
