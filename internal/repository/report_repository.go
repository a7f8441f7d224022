package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/models"
)

// ReportRepository runs the read-only projections behind the reports
type ReportRepository interface {
	InstallmentRows(ctx context.Context, dateRange models.DateRange) ([]models.InstallmentRow, error)
	SalesRows(ctx context.Context, dateRange models.DateRange) ([]models.SalesRow, error)
	ClientRows(ctx context.Context, dateRange models.DateRange) ([]models.ClientRow, error)
	InvoiceDocument(ctx context.Context, invoiceID uint) (*models.InvoiceDocument, error)
}

type reportRepository struct {
	db Connector
}

// NewReportRepository creates a new report repository
func NewReportRepository(db Connector) ReportRepository {
	return &reportRepository{db: db}
}

type installmentRowScan struct {
	PlanID          uint
	ClientName      string
	CarBrand        string
	CarModel        string
	CarYear         int
	TotalAmount     decimal.Decimal
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	StartDate       models.Date
	NextPaymentDate models.Date
	Status          string
}

func (r *reportRepository) InstallmentRows(ctx context.Context, dateRange models.DateRange) ([]models.InstallmentRow, error) {
	var scanned []installmentRowScan
	err := r.db.Conn(ctx).Table("installment_plans AS p").
		Select(`p.id AS plan_id, COALESCE(cl.name, '') AS client_name,
			COALESCE(c.brand, '') AS car_brand, COALESCE(c.model, '') AS car_model, COALESCE(c.year, 0) AS car_year,
			p.total_amount, p.paid_amount, p.remaining_amount, p.start_date, p.next_payment_date, p.status`).
		Joins("LEFT JOIN clients AS cl ON cl.id = p.client_id").
		Joins("LEFT JOIN cars AS c ON c.id = p.car_id").
		Where("p.start_date BETWEEN ? AND ?", dateRange.Start, dateRange.End).
		Order(planOrder("p.")).
		Scan(&scanned).Error
	if err != nil {
		return nil, err
	}

	rows := make([]models.InstallmentRow, 0, len(scanned))
	for _, s := range scanned {
		rows = append(rows, models.InstallmentRow{
			PlanID:          s.PlanID,
			ClientName:      s.ClientName,
			CarName:         carName(s.CarBrand, s.CarModel, s.CarYear),
			TotalAmount:     models.RoundMoney(s.TotalAmount),
			PaidAmount:      models.RoundMoney(s.PaidAmount),
			RemainingAmount: models.RoundMoney(s.RemainingAmount),
			StartDate:       s.StartDate,
			NextPaymentDate: s.NextPaymentDate,
			Status:          s.Status,
		})
	}
	return rows, nil
}

type salesRowScan struct {
	InvoiceNumber string
	InvoiceDate   models.Date
	ClientName    string
	CarBrand      string
	CarModel      string
	CarYear       int
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentStatus string
}

func (r *reportRepository) SalesRows(ctx context.Context, dateRange models.DateRange) ([]models.SalesRow, error) {
	var scanned []salesRowScan
	err := r.db.Conn(ctx).Table("invoices AS i").
		Select(`i.invoice_number, i.invoice_date, COALESCE(cl.name, '') AS client_name,
			COALESCE(c.brand, '') AS car_brand, COALESCE(c.model, '') AS car_model, COALESCE(c.year, 0) AS car_year,
			i.total_amount AS amount, i.payment_method, i.payment_status`).
		Joins("LEFT JOIN clients AS cl ON cl.id = i.client_id").
		Joins("LEFT JOIN cars AS c ON c.id = i.car_id").
		Where("i.invoice_date BETWEEN ? AND ?", dateRange.Start, dateRange.End).
		Order("i.invoice_date ASC, i.invoice_number ASC").
		Scan(&scanned).Error
	if err != nil {
		return nil, err
	}

	rows := make([]models.SalesRow, 0, len(scanned))
	for _, s := range scanned {
		rows = append(rows, models.SalesRow{
			InvoiceNumber: s.InvoiceNumber,
			InvoiceDate:   s.InvoiceDate,
			ClientName:    s.ClientName,
			CarName:       carName(s.CarBrand, s.CarModel, s.CarYear),
			Amount:        models.RoundMoney(s.Amount),
			PaymentMethod: s.PaymentMethod,
			PaymentStatus: s.PaymentStatus,
		})
	}
	return rows, nil
}

// ClientRows aggregates per client with correlated sub-selects so that
// invoices and plans do not multiply each other.
func (r *reportRepository) ClientRows(ctx context.Context, dateRange models.DateRange) ([]models.ClientRow, error) {
	var rows []models.ClientRow
	start, end := dateRange.Start, dateRange.End
	err := r.db.Conn(ctx).Raw(`
		SELECT c.id AS client_id, c.name, COALESCE(c.phone, '') AS phone,
			(SELECT COUNT(*) FROM invoices i
				WHERE i.client_id = c.id AND i.invoice_date BETWEEN ? AND ?) AS invoice_count,
			(SELECT COALESCE(SUM(i.total_amount), 0) FROM invoices i
				WHERE i.client_id = c.id AND i.invoice_date BETWEEN ? AND ?) AS invoice_total,
			(SELECT COUNT(*) FROM installment_plans p
				WHERE p.client_id = c.id AND p.start_date BETWEEN ? AND ?) AS installment_count,
			(SELECT COALESCE(SUM(p.remaining_amount), 0) FROM installment_plans p
				WHERE p.client_id = c.id AND p.start_date BETWEEN ? AND ?) AS remaining_total
		FROM clients c
		ORDER BY c.name ASC, c.id ASC`,
		start, end, start, end, start, end, start, end,
	).Scan(&rows).Error
	for i := range rows {
		rows[i].InvoiceTotal = models.RoundMoney(rows[i].InvoiceTotal)
		rows[i].RemainingTotal = models.RoundMoney(rows[i].RemainingTotal)
	}
	return rows, err
}

type invoiceDocScan struct {
	InvoiceNumber string
	InvoiceDate   models.Date
	TotalAmount   decimal.Decimal
	PaymentMethod string
	PaymentStatus string
	Notes         string
	CarBrand      string
	CarModel      string
	CarYear       int
	Chassis       string
	Engine        string
	ClientName    string
	ClientPhone   string
	ClientAddress string
	IssuedBy      string
}

// InvoiceDocument resolves everything the renderer prints for an invoice
func (r *reportRepository) InvoiceDocument(ctx context.Context, invoiceID uint) (*models.InvoiceDocument, error) {
	var s invoiceDocScan
	result := r.db.Conn(ctx).Table("invoices AS i").
		Select(`i.invoice_number, i.invoice_date, i.total_amount, i.payment_method, i.payment_status,
			COALESCE(i.notes, '') AS notes,
			COALESCE(c.brand, '') AS car_brand, COALESCE(c.model, '') AS car_model, COALESCE(c.year, 0) AS car_year,
			COALESCE(c.chassis, '') AS chassis, COALESCE(c.engine, '') AS engine,
			COALESCE(cl.name, '') AS client_name, COALESCE(cl.phone, '') AS client_phone,
			COALESCE(cl.address, '') AS client_address,
			COALESCE(NULLIF(u.full_name, ''), u.username, '') AS issued_by`).
		Joins("LEFT JOIN cars AS c ON c.id = i.car_id").
		Joins("LEFT JOIN clients AS cl ON cl.id = i.client_id").
		Joins("LEFT JOIN users AS u ON u.id = i.created_by").
		Where("i.id = ?", invoiceID).
		Limit(1).
		Scan(&s)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoRows
	}

	return &models.InvoiceDocument{
		InvoiceNumber: s.InvoiceNumber,
		InvoiceDate:   s.InvoiceDate,
		CarName:       carName(s.CarBrand, s.CarModel, 0),
		CarYear:       s.CarYear,
		Chassis:       s.Chassis,
		Engine:        s.Engine,
		ClientName:    s.ClientName,
		ClientPhone:   s.ClientPhone,
		ClientAddress: s.ClientAddress,
		Amount:        models.RoundMoney(s.TotalAmount),
		PaymentMethod: s.PaymentMethod,
		PaymentStatus: s.PaymentStatus,
		Notes:         s.Notes,
		IssuedBy:      s.IssuedBy,
	}, nil
}

func carName(brand, model string, year int) string {
	car := models.Car{Brand: brand, Model: model, Year: year}
	return strings.TrimSpace(car.DisplayName())
}
