package render

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/models"
)

// AmountInWords spells an amount the way it is written on a cheque.
// Example: 1500.50 -> "ONE THOUSAND FIVE HUNDRED AND 50/100"
func AmountInWords(amount decimal.Decimal) string {
	amount = models.RoundMoney(amount).Abs()
	integerPart := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(integerPart)).Shift(2).IntPart()

	return fmt.Sprintf("%s AND %02d/100", numberToWords(integerPart), cents)
}

func numberToWords(n int64) string {
	if n == 0 {
		return "ZERO"
	}

	if n < 20 {
		return units[n]
	}

	if n < 100 {
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + "-" + units[n%10]
	}

	if n < 1000 {
		text := units[n/100] + " HUNDRED"
		if n%100 == 0 {
			return text
		}
		return text + " " + numberToWords(n%100)
	}

	for _, scale := range scales {
		if n >= scale.value {
			text := numberToWords(n/scale.value) + " " + scale.name
			if n%scale.value == 0 {
				return text
			}
			return text + " " + numberToWords(n%scale.value)
		}
	}
	return fmt.Sprint(n)
}

var units = []string{
	"", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE",
	"TEN", "ELEVEN", "TWELVE", "THIRTEEN", "FOURTEEN", "FIFTEEN", "SIXTEEN",
	"SEVENTEEN", "EIGHTEEN", "NINETEEN",
}

var tens = []string{
	"", "", "TWENTY", "THIRTY", "FORTY", "FIFTY", "SIXTY", "SEVENTY", "EIGHTY", "NINETY",
}

var scales = []struct {
	value int64
	name  string
}{
	{1_000_000_000, "BILLION"},
	{1_000_000, "MILLION"},
	{1_000, "THOUSAND"},
}
