package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uhcare-backend/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeSource serves fixed snapshots and counts calls so idempotence can be
// asserted without a database.
type fakeSource struct {
	charges []Charge
	records []Record
	calls   int
}

func (f *fakeSource) Charges(ctx context.Context, userID string) ([]Charge, error) {
	f.calls++
	return f.charges, nil
}

func (f *fakeSource) Records(ctx context.Context, userID string) ([]Record, error) {
	return f.records, nil
}

func TestBalanceSingleBookingFullyPaid(t *testing.T) {
	charges := []Charge{
		{Kind: models.KindServiceBooking, ID: 1, Total: dec("1200.00"), Status: models.StatusConfirmed, Finalized: true},
	}
	records := []Record{
		{ID: 1, Amount: dec("1200.00"), Method: models.MethodOnline, Status: models.PaymentPaid, Charge: &charges[0]},
	}

	b := Compute(charges, records)
	assert.True(t, b.GrossTotal.Equal(dec("1200.00")), "gross_total = %s", b.GrossTotal)
	assert.True(t, b.PaidAmount.Equal(dec("1200.00")), "paid_amount = %s", b.PaidAmount)
	assert.True(t, b.NetUnpaid.IsZero(), "net_unpaid = %s", b.NetUnpaid)
}

func TestBalanceCashCommitmentExcludedFromActionable(t *testing.T) {
	charges := []Charge{
		{Kind: models.KindPharmacyOrder, ID: 7, Total: dec("500.00"), Status: models.StatusPending, Finalized: true},
	}
	records := []Record{
		{ID: 2, Amount: dec("500.00"), Method: models.MethodCash, Status: models.PaymentUnpaid, Charge: &charges[0]},
	}

	b := Compute(charges, records)
	assert.True(t, b.GrossTotal.Equal(dec("500.00")))
	assert.True(t, b.PaidAmount.IsZero())
	assert.True(t, b.NetUnpaid.Equal(dec("500.00")))
	assert.True(t, b.ActionableUnpaid.IsZero(), "cash commitment must not be actionable")
	assert.True(t, b.CashTotal.Equal(dec("500.00")))
}

func TestBalanceCancelledRentalDropsOut(t *testing.T) {
	rental := Charge{Kind: models.KindEquipmentRental, ID: 3, Total: dec("800.00"), Status: models.StatusConfirmed, Finalized: true}
	payment := models.Payment{Status: models.PaymentUnpaid, Method: models.MethodOnline}

	before := Compute([]Charge{rental}, []Record{recordOf(&payment, &rental)})
	assert.True(t, before.GrossTotal.Equal(dec("800.00")))
	assert.True(t, before.NetUnpaid.Equal(dec("800.00")))

	// Cancellation flow: rental terminal + linked payment refunded.
	rental.Status = models.StatusCancelled
	require.NoError(t, Refund(&payment))
	assert.Equal(t, models.PaymentRefunded, payment.Status)

	after := Compute([]Charge{rental}, []Record{recordOf(&payment, &rental)})
	assert.True(t, after.GrossTotal.IsZero(), "cancelled rental must not count toward gross")
	assert.True(t, after.NetUnpaid.IsZero())
	assert.True(t, after.PaidAmount.IsZero(), "a refund never contributes to paid_amount")
}

func TestBalanceStaffApprovalMovesPendingToPaid(t *testing.T) {
	charge := Charge{Kind: models.KindPersonalAppointment, ID: 9, Total: dec("300.00"), Status: models.StatusCompleted, Finalized: true}
	payment := models.Payment{
		Status:        models.PaymentPending,
		Method:        models.MethodOnline,
		TransactionID: "TXN-1042",
		Amount:        dec("300.00"),
	}

	before := Compute([]Charge{charge}, []Record{recordOf(&payment, &charge)})
	assert.True(t, before.PaidAmount.IsZero())
	assert.True(t, before.NetUnpaid.Equal(dec("300.00")))

	staff := "staff-uuid"
	require.NoError(t, StaffApprove(&payment, staff, time.Now()))
	assert.Equal(t, models.PaymentPaid, payment.Status)
	require.NotNil(t, payment.VerifiedByID)
	assert.Equal(t, staff, *payment.VerifiedByID)

	after := Compute([]Charge{charge}, []Record{recordOf(&payment, &charge)})
	assert.True(t, after.PaidAmount.Equal(dec("300.00")))
	assert.True(t, after.NetUnpaid.IsZero())
}

// recordOf snapshots a live payment the way GormSource does.
func recordOf(p *models.Payment, c *Charge) Record {
	return Record{
		ID:            p.ID,
		Amount:        p.Amount,
		Method:        p.Method,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		ProofURL:      p.ProofURL,
		Charge:        c,
	}
}

func TestNetUnpaidIsGrossMinusPaid(t *testing.T) {
	charges := []Charge{
		{Kind: models.KindServiceBooking, ID: 1, Total: dec("1200.00"), Status: models.StatusCompleted, Finalized: true},
		{Kind: models.KindPharmacyOrder, ID: 2, Total: dec("219.50"), Status: models.StatusDelivered, Finalized: true},
		{Kind: models.KindEquipmentPurchase, ID: 3, Total: dec("4600.00"), Status: models.StatusCancelled, Finalized: true},
		{Kind: models.KindPersonalAppointment, ID: 4, Total: dec("500.00"), Status: models.StatusCancelledByPatient, Finalized: true},
		{Kind: models.KindEquipmentRental, ID: 5, Total: dec("75.25"), Status: models.StatusActive, Finalized: true},
	}
	records := []Record{
		{ID: 1, Amount: dec("1200.00"), Method: models.MethodOnline, Status: models.PaymentPaid, Charge: &charges[0]},
		{ID: 2, Amount: dec("219.50"), Method: models.MethodCash, Status: models.PaymentUnpaid, Charge: &charges[1]},
		{ID: 3, Amount: dec("4600.00"), Method: models.MethodOnline, Status: models.PaymentRefunded, Charge: &charges[2]},
		{ID: 5, Amount: dec("75.25"), Method: models.MethodCash, Status: models.PaymentPaid, Charge: &charges[4]},
	}

	b := Compute(charges, records)
	assert.True(t, b.NetUnpaid.Equal(b.GrossTotal.Sub(b.PaidAmount)))
	assert.True(t, b.GrossTotal.Equal(dec("1494.75")))
	assert.True(t, b.PaidAmount.Equal(dec("1275.25")))
	assert.True(t, b.CashTotal.Equal(dec("294.75")), "committed + paid cash")
}

func TestCashTotalExcludesCancelledCharges(t *testing.T) {
	cancelled := Charge{Kind: models.KindPharmacyOrder, ID: 1, Total: dec("80.00"), Status: models.StatusCancelled, Finalized: true}
	live := Charge{Kind: models.KindEquipmentRental, ID: 2, Total: dec("120.00"), Status: models.StatusConfirmed, Finalized: true}
	records := []Record{
		{ID: 1, Amount: dec("80.00"), Method: models.MethodCash, Status: models.PaymentUnpaid, Charge: &cancelled},
		{ID: 2, Amount: dec("40.00"), Method: models.MethodCash, Status: models.PaymentPaid, Charge: &cancelled},
		{ID: 3, Amount: dec("120.00"), Method: models.MethodCash, Status: models.PaymentUnpaid, Charge: &live},
	}

	b := Compute([]Charge{cancelled, live}, records)
	assert.True(t, b.CashTotal.Equal(dec("120.00")), "cash on cancelled orders is stale, got %s", b.CashTotal)

	cl := Classify(records)
	assert.True(t, cl.CashCommitted.Equal(dec("120.00")))
	assert.Equal(t, []uint{3}, cl.IDs[BucketCashCommitted])
}

func TestGrossTotalSkipsUnfinalizedCharges(t *testing.T) {
	charges := []Charge{
		{Kind: models.KindServiceBooking, ID: 1, Total: dec("100.00"), Status: models.StatusPending, Finalized: true},
		{Kind: models.KindPharmacyOrder, ID: 2, Status: models.StatusPending, Finalized: false},
	}
	assert.True(t, GrossTotal(charges).Equal(dec("100.00")))
}

func TestGetBalanceIsIdempotent(t *testing.T) {
	src := &fakeSource{
		charges: []Charge{
			{Kind: models.KindServiceBooking, ID: 1, UserID: "u1", Total: dec("850.00"), Status: models.StatusConfirmed, Finalized: true},
		},
		records: []Record{
			{ID: 1, Amount: dec("850.00"), Method: models.MethodCash, Status: models.PaymentUnpaid},
		},
	}
	svc := NewService(src)

	first, err := svc.GetBalance(context.Background(), "u1")
	require.NoError(t, err)
	second, err := svc.GetBalance(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated reads must not change the result")
	assert.Equal(t, 2, src.calls, "GetBalance must never write through the source")
}
