package ledger

import (
	"github.com/shopspring/decimal"

	"uhcare-backend/models"
)

// Balance is the derived financial view for one user. NetUnpaid is the
// authoritative "what the user still owes" figure; CashTotal is an
// informational rollup of everything committed or already paid in cash.
type Balance struct {
	GrossTotal       decimal.Decimal `json:"gross_total"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	NetUnpaid        decimal.Decimal `json:"net_unpaid"`
	ActionableUnpaid decimal.Decimal `json:"actionable_unpaid"`
	CashTotal        decimal.Decimal `json:"cash_total"`
}

// Compute composes GrossTotal and Classify into the final Balance. Every call
// site that displays balance figures routes through here so the dashboard and
// the balance page cannot drift apart.
func Compute(charges []Charge, records []Record) Balance {
	cl := Classify(records)
	gross := GrossTotal(charges)

	cashPaid := decimal.Zero
	for _, r := range records {
		if r.Voided() {
			continue
		}
		if r.Status == models.PaymentPaid && r.Method == models.MethodCash {
			cashPaid = cashPaid.Add(r.Amount)
		}
	}

	return Balance{
		GrossTotal:       gross,
		PaidAmount:       cl.Paid,
		NetUnpaid:        gross.Sub(cl.Paid),
		ActionableUnpaid: cl.ActionableUnpaid,
		CashTotal:        cl.CashCommitted.Add(cashPaid),
	}
}
