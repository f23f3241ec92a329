package ledger

import (
	"github.com/shopspring/decimal"

	"uhcare-backend/models"
)

type Bucket string

const (
	BucketPaid             Bucket = "paid"
	BucketRefunded         Bucket = "refunded"
	BucketCashCommitted    Bucket = "cash_committed"
	BucketOnlinePending    Bucket = "online_pending"
	BucketActionableUnpaid Bucket = "actionable_unpaid"
)

// Classification partitions a user's payments into display buckets with the
// corresponding sums. IDs carries the underlying payment ids per bucket for
// list rendering.
type Classification struct {
	Paid             decimal.Decimal `json:"paid"`
	Refunded         decimal.Decimal `json:"refunded"`
	CashCommitted    decimal.Decimal `json:"cash_committed"`
	OnlinePending    decimal.Decimal `json:"online_pending"`
	ActionableUnpaid decimal.Decimal `json:"actionable_unpaid"`

	IDs map[Bucket][]uint `json:"ids"`
}

// Classify buckets each record by the first matching rule:
//
//  1. paid
//  2. refunded
//  3. unpaid + cash            -> cash commitment (not currently payable)
//  4. unpaid + online + proof  -> pending staff verification
//  5. unpaid/pending/partial   -> actionable unpaid
//
// Records tied to a cancelled chargeable are stale and excluded entirely.
func Classify(records []Record) Classification {
	cl := Classification{
		Paid:             decimal.Zero,
		Refunded:         decimal.Zero,
		CashCommitted:    decimal.Zero,
		OnlinePending:    decimal.Zero,
		ActionableUnpaid: decimal.Zero,
		IDs:              make(map[Bucket][]uint),
	}
	for _, r := range records {
		if r.Voided() {
			continue
		}
		switch {
		case r.Status == models.PaymentPaid:
			cl.Paid = cl.Paid.Add(r.Amount)
			cl.IDs[BucketPaid] = append(cl.IDs[BucketPaid], r.ID)
		case r.Status == models.PaymentRefunded:
			cl.Refunded = cl.Refunded.Add(r.Amount)
			cl.IDs[BucketRefunded] = append(cl.IDs[BucketRefunded], r.ID)
		case r.Status == models.PaymentUnpaid && r.Method == models.MethodCash:
			cl.CashCommitted = cl.CashCommitted.Add(r.Amount)
			cl.IDs[BucketCashCommitted] = append(cl.IDs[BucketCashCommitted], r.ID)
		case r.Status == models.PaymentUnpaid && r.Method == models.MethodOnline && r.ProofSubmitted():
			cl.OnlinePending = cl.OnlinePending.Add(r.Amount)
			cl.IDs[BucketOnlinePending] = append(cl.IDs[BucketOnlinePending], r.ID)
		case r.Status == models.PaymentUnpaid || r.Status == models.PaymentPending || r.Status == models.PaymentPartial:
			cl.ActionableUnpaid = cl.ActionableUnpaid.Add(r.Amount)
			cl.IDs[BucketActionableUnpaid] = append(cl.IDs[BucketActionableUnpaid], r.ID)
		}
	}
	return cl
}
