package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Entry type constants
const (
	EntryTypeIncome  = "income"
	EntryTypeExpense = "expense"
)

// Suggested categories
const (
	CategoryVehicleSales = "Vehicle sales"
	CategoryInstallments = "Installments"
)

// LedgerCategories lists the suggested categories per entry type. Categories
// are free-form; these are the ones offered to operators.
var LedgerCategories = map[string][]string{
	EntryTypeIncome: {
		CategoryVehicleSales,
		CategoryInstallments,
		"Maintenance",
		"Commissions",
		"Other income",
	},
	EntryTypeExpense: {
		"Vehicle purchases",
		"Salaries",
		"Rent",
		"Utilities",
		"Maintenance",
		"Marketing",
		"Administrative",
		"Other expenses",
	},
}

// IsValidEntryType reports whether t is income or expense
func IsValidEntryType(t string) bool {
	return t == EntryTypeIncome || t == EntryTypeExpense
}

// LedgerEntry is one dated income or expense record
type LedgerEntry struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	EntryType   string          `gorm:"size:10;not null;index" json:"entry_type"`
	Category    string          `gorm:"size:100;not null" json:"category"`
	Date        Date            `gorm:"type:varchar(10);not null;index" json:"date"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedBy   uint            `gorm:"index" json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// AfterFind normalizes amounts read back from drivers that store floats
func (e *LedgerEntry) AfterFind(tx *gorm.DB) error {
	e.Amount = RoundMoney(e.Amount)
	return nil
}

// TypeTotals is a count and sum of entries of one type
type TypeTotals struct {
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// LedgerSummary aggregates entries by type
type LedgerSummary struct {
	Income  TypeTotals `json:"income"`
	Expense TypeTotals `json:"expense"`
}

// Net returns income minus expense
func (s LedgerSummary) Net() decimal.Decimal {
	return s.Income.Total.Sub(s.Expense.Total)
}
