package models

import (
	"github.com/shopspring/decimal"
)

// Report kind constants
const (
	ReportFinancial    = "financial"
	ReportInstallments = "installments"
	ReportSales        = "sales"
	ReportClients      = "clients"
)

// IsValidReportKind reports whether kind names a known report
func IsValidReportKind(kind string) bool {
	switch kind {
	case ReportFinancial, ReportInstallments, ReportSales, ReportClients:
		return true
	}
	return false
}

// Table is a flat rendering of a report used by the exporters
type Table struct {
	Title   string
	Columns []string
	Rows    [][]interface{}
}

// Tabular is implemented by every report
type Tabular interface {
	ToTable() Table
}

// CategoryTotal is the sum of one category of one entry type
type CategoryTotal struct {
	EntryType string          `json:"entry_type"`
	Category  string          `json:"category"`
	Total     decimal.Decimal `json:"total"`
	Count     int64           `json:"count"`
}

type FinancialSummary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Net          decimal.Decimal `json:"net"`
}

// FinancialReport groups ledger entries of a range by type and category
type FinancialReport struct {
	Range   DateRange        `json:"range"`
	Rows    []CategoryTotal  `json:"rows"`
	Details []LedgerEntry    `json:"details"`
	Summary FinancialSummary `json:"summary"`
}

func (r *FinancialReport) ToTable() Table {
	t := Table{
		Title:   "Financial report " + r.Range.Start.String() + " to " + r.Range.End.String(),
		Columns: []string{"Type", "Category", "Count", "Total"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []interface{}{row.EntryType, row.Category, row.Count, Money(row.Total)})
	}
	t.Rows = append(t.Rows,
		[]interface{}{"", "Total income", "", Money(r.Summary.TotalIncome)},
		[]interface{}{"", "Total expense", "", Money(r.Summary.TotalExpense)},
		[]interface{}{"", "Net", "", Money(r.Summary.Net)},
	)
	return t
}

// InstallmentRow is one plan as it appears in the installments report
type InstallmentRow struct {
	PlanID          uint            `json:"plan_id"`
	ClientName      string          `json:"client_name"`
	CarName         string          `json:"car_name"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	StartDate       Date            `json:"start_date"`
	NextPaymentDate Date            `json:"next_payment_date"`
	Status          string          `json:"status"`
}

type InstallmentSummary struct {
	TotalCount     int64            `json:"total_count"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	TotalPaid      decimal.Decimal  `json:"total_paid"`
	TotalRemaining decimal.Decimal  `json:"total_remaining"`
	ByStatus       map[string]int64 `json:"by_status"`
}

// InstallmentReport lists plans whose start date falls in the range
type InstallmentReport struct {
	Range   DateRange          `json:"range"`
	Rows    []InstallmentRow   `json:"rows"`
	Summary InstallmentSummary `json:"summary"`
}

func (r *InstallmentReport) ToTable() Table {
	t := Table{
		Title:   "Installments report " + r.Range.Start.String() + " to " + r.Range.End.String(),
		Columns: []string{"Plan", "Client", "Car", "Total", "Paid", "Remaining", "Start", "Next payment", "Status"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []interface{}{
			row.PlanID, row.ClientName, row.CarName,
			Money(row.TotalAmount), Money(row.PaidAmount), Money(row.RemainingAmount),
			row.StartDate.String(), row.NextPaymentDate.String(), row.Status,
		})
	}
	return t
}

// SalesRow is one invoice as it appears in the sales report
type SalesRow struct {
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   Date            `json:"invoice_date"`
	ClientName    string          `json:"client_name"`
	CarName       string          `json:"car_name"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
}

type SalesSummary struct {
	TotalCount  int64                      `json:"total_count"`
	TotalAmount decimal.Decimal            `json:"total_amount"`
	ByMethod    map[string]decimal.Decimal `json:"by_method"`
}

// SalesReport lists invoices of the range split by payment method
type SalesReport struct {
	Range   DateRange    `json:"range"`
	Rows    []SalesRow   `json:"rows"`
	Summary SalesSummary `json:"summary"`
}

func (r *SalesReport) ToTable() Table {
	t := Table{
		Title:   "Sales report " + r.Range.Start.String() + " to " + r.Range.End.String(),
		Columns: []string{"Invoice", "Date", "Client", "Car", "Amount", "Method", "Status"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []interface{}{
			row.InvoiceNumber, row.InvoiceDate.String(), row.ClientName, row.CarName,
			Money(row.Amount), row.PaymentMethod, row.PaymentStatus,
		})
	}
	return t
}

// ClientRow aggregates one client's invoices and plans within the range
type ClientRow struct {
	ClientID         uint            `json:"client_id"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	InvoiceCount     int64           `json:"invoice_count"`
	InvoiceTotal     decimal.Decimal `json:"invoice_total"`
	InstallmentCount int64           `json:"installment_count"`
	RemainingTotal   decimal.Decimal `json:"remaining_total"`
}

type ClientSummary struct {
	TotalClients     int64           `json:"total_clients"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalRemaining   decimal.Decimal `json:"total_remaining"`
	WithInstallments int64           `json:"with_installments"`
}

// ClientReport covers every client, including those with no activity
type ClientReport struct {
	Range   DateRange     `json:"range"`
	Rows    []ClientRow   `json:"rows"`
	Summary ClientSummary `json:"summary"`
}

func (r *ClientReport) ToTable() Table {
	t := Table{
		Title:   "Clients report " + r.Range.Start.String() + " to " + r.Range.End.String(),
		Columns: []string{"Client", "Phone", "Invoices", "Invoice total", "Installments", "Remaining"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []interface{}{
			row.Name, row.Phone, row.InvoiceCount, Money(row.InvoiceTotal),
			row.InstallmentCount, Money(row.RemainingTotal),
		})
	}
	return t
}
