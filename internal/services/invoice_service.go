package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/jobs"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/render"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/storage"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// CreateInvoiceInput describes one sale
type CreateInvoiceInput struct {
	CarID         uint            `json:"car_id"`
	ClientID      uint            `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
}

func (in *CreateInvoiceInput) normalize() error {
	in.Amount = models.RoundMoney(in.Amount)
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))

	switch {
	case in.CarID == 0:
		return invalid("car_id", "is required")
	case in.ClientID == 0:
		return invalid("client_id", "is required")
	case !in.Amount.IsPositive():
		return invalid("amount", "must be greater than zero")
	case in.PaymentMethod != models.InvoiceMethodCash && in.PaymentMethod != models.InvoiceMethodInstallment:
		return invalid("payment_method", "must be cash or installment")
	}
	return nil
}

// CreateInvoiceResult is a committed invoice. RenderError is set when the
// document could not be produced; the invoice itself stands and can be
// rendered again with Regenerate.
type CreateInvoiceResult struct {
	Invoice     *models.Invoice `json:"invoice"`
	RenderError error           `json:"-"`
}

// InvoiceService allocates invoice numbers, records sales and keeps their
// documents rendered.
type InvoiceService struct {
	store    Store
	repo     repository.InvoiceRepository
	parties  *InventoryService
	reports  repository.ReportRepository
	ledger   *LedgerService
	renderer render.Renderer
	files    *storage.LocalStorage
	worker   *jobs.Worker
	audit    *audit.Trail
	company  string
	now      func() time.Time
}

func NewInvoiceService(
	store Store,
	repo repository.InvoiceRepository,
	parties *InventoryService,
	reports repository.ReportRepository,
	ledger *LedgerService,
	renderer render.Renderer,
	files *storage.LocalStorage,
	worker *jobs.Worker,
	trail *audit.Trail,
	cfg *config.Config,
) *InvoiceService {
	return &InvoiceService{
		store:    store,
		repo:     repo,
		parties:  parties,
		reports:  reports,
		ledger:   ledger,
		renderer: renderer,
		files:    files,
		worker:   worker,
		audit:    trail,
		company:  cfg.CompanyName,
		now:      time.Now,
	}
}

// NextInvoiceNumber previews the number the next invoice of the month
// would get. Only CreateInvoice reserves it.
func (s *InvoiceService) NextInvoiceNumber(ctx context.Context, year int, month time.Month) (string, error) {
	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return "", invalid("month", "year and month are out of range")
	}

	var number string
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		number, err = s.allocate(ctx, year, month)
		return err
	})
	return number, err
}

// allocate finds the highest sequence of the month and adds one. Callers
// that insert the number must hold the write lock.
func (s *InvoiceService) allocate(ctx context.Context, year int, month time.Month) (string, error) {
	prefix := monthPrefix(year, month)
	numbers, err := s.repo.NumbersWithPrefix(ctx, prefix)
	if err != nil {
		return "", classify("read invoice numbers", err)
	}

	highest := 0
	for _, n := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err != nil {
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1), nil
}

func monthPrefix(year int, month time.Month) string {
	return fmt.Sprintf("%s%04d%02d-", models.InvoicePrefix, year, int(month))
}

// CreateInvoice allocates a number, stores the invoice, marks the car
// sold, posts cash sales to the ledger, then renders the document outside the write lock.
func (s *InvoiceService) CreateInvoice(ctx context.Context, in CreateInvoiceInput, actor models.Actor) (*CreateInvoiceResult, error) {
	var invoice *models.Invoice
	err := in.normalize()
	if err == nil {
		err = s.store.Write(ctx, func(ctx context.Context) error {
			if err := s.parties.requireParties(ctx, in.CarID, in.ClientID); err != nil {
				return err
			}
			day := today(s.now)
			number, err := s.allocate(ctx, day.Year(), day.Month())
			if err != nil {
				return err
			}

			invoice = &models.Invoice{
				InvoiceNumber: number,
				CarID:         in.CarID,
				ClientID:      in.ClientID,
				InvoiceDate:   day,
				TotalAmount:   in.Amount,
				PaymentMethod: in.PaymentMethod,
				PaymentStatus: models.StatusForMethod(in.PaymentMethod),
				Notes:         in.Notes,
				CreatedBy:     actor.ID,
			}
			if err := s.repo.Create(ctx, invoice); err != nil {
				return classify("insert invoice "+number, err)
			}
			if err := s.parties.markSold(ctx, in.CarID); err != nil {
				return err
			}

			if in.PaymentMethod != models.InvoiceMethodCash {
				return nil
			}
			_, err = s.ledger.post(ctx, LedgerInput{
				EntryType:   models.EntryTypeIncome,
				Category:    models.CategoryVehicleSales,
				Amount:      in.Amount,
				Date:        day,
				Description: "sale " + number,
			}, actor)
			return err
		})
	}

	desc := fmt.Sprintf("%s sale of %s to client %d", in.PaymentMethod, models.Money(in.Amount), in.ClientID)
	if invoice != nil && err == nil {
		desc = invoice.InvoiceNumber + ": " + desc
	}
	s.audit.Record(ctx, actor, audit.EventInvoiceCreate, desc, err)
	if err != nil {
		return nil, err
	}

	result := &CreateInvoiceResult{Invoice: invoice}
	if path, err := s.render(ctx, invoice, actor); err != nil {
		logger.Warn("Invoice saved without document", "invoice", invoice.InvoiceNumber, "error", err)
		result.RenderError = err
	} else {
		invoice.FilePath = path
	}
	return result, nil
}

// Regenerate renders the document of an existing invoice again
func (s *InvoiceService) Regenerate(ctx context.Context, number string, actor models.Actor) (string, error) {
	invoice, err := s.FindByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	return s.render(ctx, invoice, actor)
}

// render resolves the invoice data under the read lock, produces the
// document without holding any lock, then records its path.
func (s *InvoiceService) render(ctx context.Context, invoice *models.Invoice, actor models.Actor) (string, error) {
	var doc *models.InvoiceDocument
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.reports.InvoiceDocument(ctx, invoice.ID)
		return classify("resolve invoice "+invoice.InvoiceNumber, err)
	})
	if err != nil {
		s.audit.Record(ctx, actor, audit.EventInvoiceRender, invoice.InvoiceNumber, err)
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	doc.CompanyName = s.company

	path, err := s.renderer.Render(ctx, doc)
	if err == nil {
		err = s.store.Write(ctx, func(ctx context.Context) error {
			return classify("record invoice file", s.repo.UpdateFilePath(ctx, invoice.ID, path))
		})
	}

	s.audit.Record(ctx, actor, audit.EventInvoiceRender, invoice.InvoiceNumber, err)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRender, invoice.InvoiceNumber, err)
	}
	return path, nil
}

// GetFile returns the absolute path of a rendered invoice document. An
// unknown invoice and a missing document both report not found.
func (s *InvoiceService) GetFile(ctx context.Context, number string) (string, error) {
	invoice, err := s.FindByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	if !invoice.IsRendered() || !s.files.Exists(invoice.FilePath) {
		return "", fmt.Errorf("document for invoice %s: %w", number, ErrNotFound)
	}
	return s.files.GetFullPath(invoice.FilePath), nil
}

// FindByNumber returns one invoice
func (s *InvoiceService) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.repo.FindByNumber(ctx, strings.TrimSpace(number))
		return classify("invoice "+number, err)
	})
	return invoice, err
}

// List returns invoices, newest first, optionally limited to a date
// range and a payment method
func (s *InvoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, error) {
	if filter.Range != nil {
		if err := filter.Range.Validate(); err != nil {
			return nil, invalid("range", err.Error())
		}
	}
	filter.PaymentMethod = strings.ToLower(strings.TrimSpace(filter.PaymentMethod))
	if filter.PaymentMethod != "" && filter.PaymentMethod != models.InvoiceMethodCash &&
		filter.PaymentMethod != models.InvoiceMethodInstallment {
		return nil, invalid("payment_method", "must be cash or installment")
	}

	var invoices []models.Invoice
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		invoices, err = s.repo.List(ctx, filter)
		return classify("list invoices", err)
	})
	return invoices, err
}

// SalesSummary totals invoices per payment method
func (s *InvoiceService) SalesSummary(ctx context.Context, dateRange *models.DateRange) ([]models.MethodSummary, error) {
	if dateRange != nil {
		if err := dateRange.Validate(); err != nil {
			return nil, invalid("range", err.Error())
		}
	}

	var summary []models.MethodSummary
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.repo.SummaryByMethod(ctx, dateRange)
		return classify("summarize sales", err)
	})
	return summary, err
}

// RenderPending queues a render for every invoice without a document and
// returns how many were queued.
func (s *InvoiceService) RenderPending(ctx context.Context, actor models.Actor) (int, error) {
	var pending []models.Invoice
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		pending, err = s.repo.ListUnrendered(ctx)
		return classify("list unrendered invoices", err)
	})
	if err != nil {
		return 0, err
	}

	queued := 0
	for i := range pending {
		invoice := pending[i]
		log := logger.With("invoice", invoice.InvoiceNumber, "actor", actor.Name)
		err := s.worker.Enqueue(func(ctx context.Context) error {
			path, err := s.render(ctx, &invoice, actor)
			if err != nil {
				log.Warn("Pending render failed", "error", err)
				return err
			}
			log.Debug("Pending render done", "file", path)
			return nil
		})
		if err != nil {
			return queued, err
		}
		queued++
	}
	if queued > 0 {
		logger.Info("Queued pending invoice renders", "count", queued)
	}
	return queued, nil
}
