package ledger

import (
	"log"

	"github.com/shopspring/decimal"
)

// GrossTotal sums the totals of all non-cancelled charges. A charge whose
// total was never finalized contributes zero and is logged instead of aborting
// the computation: one malformed row must not block a user's balance view.
func GrossTotal(charges []Charge) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		if c.Cancelled() {
			continue
		}
		if !c.Finalized {
			log.Printf("ledger: %s #%d has no finalized total, counted as zero", c.Kind, c.ID)
			continue
		}
		total = total.Add(c.Total)
	}
	return total
}
