package types

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers, matching what browser clients already parse.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money rounds an amount to two decimal places.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MoneyFromFloat converts a float amount and rounds it to two decimal places.
func MoneyFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
