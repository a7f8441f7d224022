package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice payment method constants
const (
	InvoiceMethodCash        = "cash"
	InvoiceMethodInstallment = "installment"
)

// Invoice payment status constants
const (
	InvoiceStatusPaid        = "paid"
	InvoiceStatusUnpaid      = "unpaid"
	InvoiceStatusInstallment = "installment"
)

// InvoicePrefix is the fixed lead of every invoice number
const InvoicePrefix = "INV-"

// Invoice is a uniquely numbered sale record
type Invoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"size:20;not null;uniqueIndex" json:"invoice_number"`
	CarID         uint            `gorm:"not null;index" json:"car_id"`
	ClientID      uint            `gorm:"not null;index" json:"client_id"`
	InvoiceDate   Date            `gorm:"type:varchar(10);not null;index" json:"invoice_date"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	PaymentMethod string          `gorm:"size:20;not null" json:"payment_method"`
	PaymentStatus string          `gorm:"size:20;not null" json:"payment_status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	FilePath      string          `gorm:"size:255" json:"file_path"`
	CreatedBy     uint            `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// AfterFind normalizes amounts read back from drivers that store floats
func (i *Invoice) AfterFind(tx *gorm.DB) error {
	i.TotalAmount = RoundMoney(i.TotalAmount)
	return nil
}

// IsRendered reports whether a document has been produced for the invoice
func (i *Invoice) IsRendered() bool {
	return i.FilePath != ""
}

// StatusForMethod derives the payment status an invoice starts with
func StatusForMethod(method string) string {
	if method == InvoiceMethodCash {
		return InvoiceStatusPaid
	}
	return InvoiceStatusInstallment
}

// InvoiceDocument is everything a renderer needs to print one invoice
type InvoiceDocument struct {
	CompanyName   string
	InvoiceNumber string
	InvoiceDate   Date
	CarName       string
	CarYear       int
	Chassis       string
	Engine        string
	ClientName    string
	ClientPhone   string
	ClientAddress string
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentStatus string
	Notes         string
	IssuedBy      string
}

// MethodSummary is the invoice count and total for one payment method
type MethodSummary struct {
	PaymentMethod string          `json:"payment_method"`
	Count         int64           `json:"count"`
	Total         decimal.Decimal `json:"total"`
}
