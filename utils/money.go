package utils

import "github.com/shopspring/decimal"

// Round2 rounds d to 2 decimal places (currency precision).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
