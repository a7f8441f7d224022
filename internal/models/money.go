package models

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of minor-unit digits kept on every amount.
const MoneyPlaces = 2

// RoundMoney rounds an amount to currency precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Money formats an amount with two decimals for text output.
func Money(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}
