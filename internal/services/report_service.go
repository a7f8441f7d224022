package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
)

// ReportService builds the date-ranged read projections
type ReportService struct {
	store   Store
	ledger  repository.LedgerRepository
	reports repository.ReportRepository
	cache   *reportCache
}

func NewReportService(store Store, ledger repository.LedgerRepository, reports repository.ReportRepository, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		store:   store,
		ledger:  ledger,
		reports: reports,
		cache:   newReportCache(cacheTTL),
	}
}

// Build returns the report of the given kind
func (s *ReportService) Build(ctx context.Context, kind string, dateRange models.DateRange) (models.Tabular, error) {
	switch kind {
	case models.ReportFinancial:
		return s.Financial(ctx, dateRange)
	case models.ReportInstallments:
		return s.Installments(ctx, dateRange)
	case models.ReportSales:
		return s.Sales(ctx, dateRange)
	case models.ReportClients:
		return s.Clients(ctx, dateRange)
	default:
		return nil, invalid("kind", "must be financial, installments, sales or clients")
	}
}

// Financial groups the ledger entries of the range by type and category
func (s *ReportService) Financial(ctx context.Context, dateRange models.DateRange) (*models.FinancialReport, error) {
	v, err := s.cached(ctx, models.ReportFinancial, dateRange, func(ctx context.Context) (interface{}, error) {
		rows, err := s.ledger.CategoryTotals(ctx, dateRange)
		if err != nil {
			return nil, err
		}
		details, err := s.ledger.List(ctx, &dateRange)
		if err != nil {
			return nil, err
		}

		report := &models.FinancialReport{
			Range:   dateRange,
			Rows:    rows,
			Details: details,
			Summary: models.FinancialSummary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero},
		}
		for _, row := range rows {
			switch row.EntryType {
			case models.EntryTypeIncome:
				report.Summary.TotalIncome = report.Summary.TotalIncome.Add(row.Total)
			case models.EntryTypeExpense:
				report.Summary.TotalExpense = report.Summary.TotalExpense.Add(row.Total)
			}
		}
		report.Summary.TotalIncome = models.RoundMoney(report.Summary.TotalIncome)
		report.Summary.TotalExpense = models.RoundMoney(report.Summary.TotalExpense)
		report.Summary.Net = report.Summary.TotalIncome.Sub(report.Summary.TotalExpense)
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FinancialReport), nil
}

// Installments lists the plans that started within the range
func (s *ReportService) Installments(ctx context.Context, dateRange models.DateRange) (*models.InstallmentReport, error) {
	v, err := s.cached(ctx, models.ReportInstallments, dateRange, func(ctx context.Context) (interface{}, error) {
		rows, err := s.reports.InstallmentRows(ctx, dateRange)
		if err != nil {
			return nil, err
		}

		summary := models.InstallmentSummary{
			TotalAmount:    decimal.Zero,
			TotalPaid:      decimal.Zero,
			TotalRemaining: decimal.Zero,
			ByStatus: map[string]int64{
				models.PlanStatusOngoing:   0,
				models.PlanStatusOverdue:   0,
				models.PlanStatusCompleted: 0,
			},
		}
		for _, row := range rows {
			summary.TotalCount++
			summary.TotalAmount = summary.TotalAmount.Add(row.TotalAmount)
			summary.TotalPaid = summary.TotalPaid.Add(row.PaidAmount)
			summary.TotalRemaining = summary.TotalRemaining.Add(row.RemainingAmount)
			summary.ByStatus[row.Status]++
		}
		summary.TotalAmount = models.RoundMoney(summary.TotalAmount)
		summary.TotalPaid = models.RoundMoney(summary.TotalPaid)
		summary.TotalRemaining = models.RoundMoney(summary.TotalRemaining)

		return &models.InstallmentReport{Range: dateRange, Rows: rows, Summary: summary}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.InstallmentReport), nil
}

// Sales lists the invoices of the range with totals per payment method
func (s *ReportService) Sales(ctx context.Context, dateRange models.DateRange) (*models.SalesReport, error) {
	v, err := s.cached(ctx, models.ReportSales, dateRange, func(ctx context.Context) (interface{}, error) {
		rows, err := s.reports.SalesRows(ctx, dateRange)
		if err != nil {
			return nil, err
		}

		summary := models.SalesSummary{
			TotalAmount: decimal.Zero,
			ByMethod: map[string]decimal.Decimal{
				models.InvoiceMethodCash:        decimal.Zero,
				models.InvoiceMethodInstallment: decimal.Zero,
			},
		}
		for _, row := range rows {
			summary.TotalCount++
			summary.TotalAmount = summary.TotalAmount.Add(row.Amount)
			summary.ByMethod[row.PaymentMethod] = summary.ByMethod[row.PaymentMethod].Add(row.Amount)
		}
		summary.TotalAmount = models.RoundMoney(summary.TotalAmount)
		for method, total := range summary.ByMethod {
			summary.ByMethod[method] = models.RoundMoney(total)
		}

		return &models.SalesReport{Range: dateRange, Rows: rows, Summary: summary}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SalesReport), nil
}

// Clients aggregates every client's sales and outstanding installments
// within the range. Clients without activity are listed too; only those
// with installments count toward WithInstallments.
func (s *ReportService) Clients(ctx context.Context, dateRange models.DateRange) (*models.ClientReport, error) {
	v, err := s.cached(ctx, models.ReportClients, dateRange, func(ctx context.Context) (interface{}, error) {
		rows, err := s.reports.ClientRows(ctx, dateRange)
		if err != nil {
			return nil, err
		}

		summary := models.ClientSummary{TotalSales: decimal.Zero, TotalRemaining: decimal.Zero}
		for _, row := range rows {
			summary.TotalClients++
			summary.TotalSales = summary.TotalSales.Add(row.InvoiceTotal)
			summary.TotalRemaining = summary.TotalRemaining.Add(row.RemainingTotal)
			if row.InstallmentCount > 0 {
				summary.WithInstallments++
			}
		}
		summary.TotalSales = models.RoundMoney(summary.TotalSales)
		summary.TotalRemaining = models.RoundMoney(summary.TotalRemaining)

		return &models.ClientReport{Range: dateRange, Rows: rows, Summary: summary}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ClientReport), nil
}

// cached serves a report from the cache while the store generation is
// unchanged, building it under the read lock otherwise.
func (s *ReportService) cached(ctx context.Context, kind string, dateRange models.DateRange, build func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, invalid("range", err.Error())
	}

	key := cacheKey{kind: kind, start: dateRange.Start.String(), end: dateRange.End.String()}
	var value interface{}
	err := s.store.Read(ctx, func(ctx context.Context) error {
		generation := s.store.Generation()
		if v, ok := s.cache.get(key, generation); ok {
			value = v
			return nil
		}
		v, err := build(ctx)
		if err != nil {
			return classify("build "+kind+" report", err)
		}
		s.cache.put(key, generation, v)
		value = v
		return nil
	})
	return value, err
}

// Invalidate drops every cached report
func (s *ReportService) Invalidate() {
	s.cache.clear()
}

type cacheKey struct {
	kind  string
	start string
	end   string
}

type cacheEntry struct {
	generation uint64
	expires    time.Time
	value      interface{}
}

// reportCache holds built reports for a short time. An entry is only
// served while the store generation it was built at is still current.
type reportCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[cacheKey]cacheEntry
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{ttl: ttl, now: time.Now, entries: make(map[cacheKey]cacheEntry)}
}

func (c *reportCache) get(key cacheKey, generation uint64) (interface{}, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.generation != generation || c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *reportCache) put(key cacheKey, generation uint64, value interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if e.generation != generation {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{generation: generation, expires: c.now().Add(c.ttl), value: value}
}

func (c *reportCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
