package repository

import (
	"context"

	"github.com/sjperalta/dealer-ledger/internal/models"
)

// InvoiceFilter narrows an invoice listing; zero values mean "any"
type InvoiceFilter struct {
	Range         *models.DateRange
	PaymentMethod string
}

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByNumber(ctx context.Context, number string) (*models.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error)
	NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
	UpdateFilePath(ctx context.Context, id uint, path string) error
	ListUnrendered(ctx context.Context) ([]models.Invoice, error)
	SummaryByMethod(ctx context.Context, dateRange *models.DateRange) ([]models.MethodSummary, error)
}

type invoiceRepository struct {
	db Connector
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db Connector) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.Conn(ctx).Create(invoice).Error
}

func (r *invoiceRepository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Conn(ctx).Where("invoice_number = ?", number).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	var invoices []models.Invoice
	db := r.db.Conn(ctx)
	if filter.Range != nil {
		db = db.Where("invoice_date BETWEEN ? AND ?", filter.Range.Start, filter.Range.End)
	}
	if filter.PaymentMethod != "" {
		db = db.Where("payment_method = ?", filter.PaymentMethod)
	}
	err := db.Order("invoice_date DESC, id DESC").Find(&invoices).Error
	return invoices, err
}

// NumbersWithPrefix returns every invoice number starting with prefix
func (r *invoiceRepository) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	err := r.db.Conn(ctx).Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Pluck("invoice_number", &numbers).Error
	return numbers, err
}

func (r *invoiceRepository) UpdateFilePath(ctx context.Context, id uint, path string) error {
	return r.db.Conn(ctx).Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("file_path", path).Error
}

// ListUnrendered returns invoices that have no document yet
func (r *invoiceRepository) ListUnrendered(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Conn(ctx).
		Where("file_path = '' OR file_path IS NULL").
		Order("id ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) SummaryByMethod(ctx context.Context, dateRange *models.DateRange) ([]models.MethodSummary, error) {
	var rows []models.MethodSummary
	db := r.db.Conn(ctx).Model(&models.Invoice{}).
		Select("payment_method, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total")
	if dateRange != nil {
		db = db.Where("invoice_date BETWEEN ? AND ?", dateRange.Start, dateRange.End)
	}
	err := db.Group("payment_method").Order("payment_method ASC").Scan(&rows).Error
	for i := range rows {
		rows[i].Total = models.RoundMoney(rows[i].Total)
	}
	if rows == nil {
		rows = []models.MethodSummary{}
	}
	return rows, err
}
