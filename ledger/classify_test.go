package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"uhcare-backend/models"
)

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		bucket Bucket
	}{
		{
			name:   "paid wins regardless of method",
			record: Record{ID: 1, Amount: dec("100"), Method: models.MethodCash, Status: models.PaymentPaid},
			bucket: BucketPaid,
		},
		{
			name:   "refunded before method rules",
			record: Record{ID: 2, Amount: dec("100"), Method: models.MethodCash, Status: models.PaymentRefunded},
			bucket: BucketRefunded,
		},
		{
			name:   "unpaid cash is a commitment",
			record: Record{ID: 3, Amount: dec("100"), Method: models.MethodCash, Status: models.PaymentUnpaid},
			bucket: BucketCashCommitted,
		},
		{
			name:   "unpaid online with transaction id is pending verification",
			record: Record{ID: 4, Amount: dec("100"), Method: models.MethodOnline, Status: models.PaymentUnpaid, TransactionID: "TXN-1"},
			bucket: BucketOnlinePending,
		},
		{
			name:   "unpaid online with proof url only also counts as pending",
			record: Record{ID: 5, Amount: dec("100"), Method: models.MethodOnline, Status: models.PaymentUnpaid, ProofURL: "https://cdn/p.png"},
			bucket: BucketOnlinePending,
		},
		{
			name:   "unpaid online without proof is actionable",
			record: Record{ID: 6, Amount: dec("100"), Method: models.MethodOnline, Status: models.PaymentUnpaid},
			bucket: BucketActionableUnpaid,
		},
		{
			name:   "unpaid with no method yet is actionable",
			record: Record{ID: 7, Amount: dec("100"), Status: models.PaymentUnpaid},
			bucket: BucketActionableUnpaid,
		},
		{
			name:   "pending is actionable",
			record: Record{ID: 8, Amount: dec("100"), Method: models.MethodOnline, Status: models.PaymentPending, TransactionID: "TXN-2"},
			bucket: BucketActionableUnpaid,
		},
		{
			name:   "partial is actionable",
			record: Record{ID: 9, Amount: dec("100"), Method: models.MethodCash, Status: models.PaymentPartial},
			bucket: BucketActionableUnpaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := Classify([]Record{tt.record})
			assert.Equal(t, []uint{tt.record.ID}, cl.IDs[tt.bucket])
			for b, ids := range cl.IDs {
				if b != tt.bucket {
					assert.Empty(t, ids, "unexpected ids in %s", b)
				}
			}
		})
	}
}

func TestClassifySkipsRecordsOfCancelledCharges(t *testing.T) {
	cancelled := Charge{Kind: models.KindPharmacyOrder, ID: 1, Status: models.StatusCancelled, Finalized: true}
	byPatient := Charge{Kind: models.KindPersonalAppointment, ID: 2, Status: models.StatusCancelledByPatient, Finalized: true}
	live := Charge{Kind: models.KindServiceBooking, ID: 3, Status: models.StatusConfirmed, Finalized: true}

	cl := Classify([]Record{
		{ID: 1, Amount: dec("50"), Method: models.MethodCash, Status: models.PaymentUnpaid, Charge: &cancelled},
		{ID: 2, Amount: dec("60"), Method: models.MethodOnline, Status: models.PaymentPaid, Charge: &byPatient},
		{ID: 3, Amount: dec("70"), Method: models.MethodCash, Status: models.PaymentUnpaid, Charge: &live},
	})

	assert.True(t, cl.Paid.IsZero(), "paid record of a cancelled appointment is stale")
	assert.True(t, cl.CashCommitted.Equal(dec("70")))
	assert.Equal(t, []uint{3}, cl.IDs[BucketCashCommitted])
}

func TestClassifySumsPerBucket(t *testing.T) {
	cl := Classify([]Record{
		{ID: 1, Amount: dec("100.50"), Method: models.MethodOnline, Status: models.PaymentPaid},
		{ID: 2, Amount: dec("99.50"), Method: models.MethodCash, Status: models.PaymentPaid},
		{ID: 3, Amount: dec("10.00"), Method: models.MethodCash, Status: models.PaymentUnpaid},
		{ID: 4, Amount: dec("15.00"), Method: models.MethodCash, Status: models.PaymentUnpaid},
	})
	assert.True(t, cl.Paid.Equal(dec("200.00")))
	assert.True(t, cl.CashCommitted.Equal(dec("25.00")))
	assert.Equal(t, []uint{1, 2}, cl.IDs[BucketPaid])
}
