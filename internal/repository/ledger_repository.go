package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/models"
)

// LedgerRepository defines the interface for ledger entry data access
type LedgerRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error)
	List(ctx context.Context, dateRange *models.DateRange) ([]models.LedgerEntry, error)
	Update(ctx context.Context, entry *models.LedgerEntry) error
	Delete(ctx context.Context, id uint) (int64, error)
	Summary(ctx context.Context, dateRange *models.DateRange) (*models.LedgerSummary, error)
	CategoryTotals(ctx context.Context, dateRange models.DateRange) ([]models.CategoryTotal, error)
}

type ledgerRepository struct {
	db Connector
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db Connector) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.Conn(ctx).Create(entry).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.Conn(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns all entries newest first, or the entries of a range in
// ascending date order.
func (r *ledgerRepository) List(ctx context.Context, dateRange *models.DateRange) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	db := r.db.Conn(ctx)
	if dateRange != nil {
		db = db.Where("date BETWEEN ? AND ?", dateRange.Start, dateRange.End).
			Order("date ASC, id ASC")
	} else {
		db = db.Order("date DESC, id DESC")
	}
	err := db.Find(&entries).Error
	return entries, err
}

// Update replaces the mutable fields of an entry
func (r *ledgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.Conn(ctx).Model(&models.LedgerEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"entry_type":  entry.EntryType,
			"category":    entry.Category,
			"amount":      entry.Amount,
			"date":        entry.Date,
			"description": entry.Description,
		}).Error
}

// Delete removes an entry and reports how many rows were affected
func (r *ledgerRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.Conn(ctx).Delete(&models.LedgerEntry{}, id)
	return result.RowsAffected, result.Error
}

type typeTotalRow struct {
	EntryType string
	Total     decimal.Decimal
	Count     int64
}

// Summary sums entries per type; types without entries stay at zero
func (r *ledgerRepository) Summary(ctx context.Context, dateRange *models.DateRange) (*models.LedgerSummary, error) {
	var rows []typeTotalRow
	db := r.db.Conn(ctx).Model(&models.LedgerEntry{}).
		Select("entry_type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count")
	if dateRange != nil {
		db = db.Where("date BETWEEN ? AND ?", dateRange.Start, dateRange.End)
	}
	if err := db.Group("entry_type").Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := &models.LedgerSummary{
		Income:  models.TypeTotals{Total: decimal.Zero},
		Expense: models.TypeTotals{Total: decimal.Zero},
	}
	for _, row := range rows {
		totals := models.TypeTotals{Total: models.RoundMoney(row.Total), Count: row.Count}
		switch row.EntryType {
		case models.EntryTypeIncome:
			summary.Income = totals
		case models.EntryTypeExpense:
			summary.Expense = totals
		}
	}
	return summary, nil
}

// CategoryTotals groups the entries of a range by type and category
func (r *ledgerRepository) CategoryTotals(ctx context.Context, dateRange models.DateRange) ([]models.CategoryTotal, error) {
	var rows []models.CategoryTotal
	err := r.db.Conn(ctx).Model(&models.LedgerEntry{}).
		Select("entry_type, category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("date BETWEEN ? AND ?", dateRange.Start, dateRange.End).
		Group("entry_type, category").
		Order("entry_type ASC, total DESC").
		Scan(&rows).Error
	for i := range rows {
		rows[i].Total = models.RoundMoney(rows[i].Total)
	}
	return rows, err
}
