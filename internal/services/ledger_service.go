package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
)

// LedgerInput carries the editable fields of a ledger entry
type LedgerInput struct {
	EntryType   string          `json:"entry_type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        models.Date     `json:"date"`
	Description string          `json:"description"`
}

func (in *LedgerInput) normalize() error {
	in.EntryType = strings.ToLower(strings.TrimSpace(in.EntryType))
	in.Category = strings.TrimSpace(in.Category)
	in.Amount = models.RoundMoney(in.Amount)

	if !models.IsValidEntryType(in.EntryType) {
		return invalid("entry_type", "must be income or expense")
	}
	if in.Category == "" {
		return invalid("category", "is required")
	}
	if !in.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if in.Date.IsZero() {
		return invalid("date", "is required")
	}
	return nil
}

// LedgerService records dated income and expense entries
type LedgerService struct {
	store Store
	repo  repository.LedgerRepository
	audit *audit.Trail
}

func NewLedgerService(store Store, repo repository.LedgerRepository, trail *audit.Trail) *LedgerService {
	return &LedgerService{store: store, repo: repo, audit: trail}
}

// Record validates and inserts a new entry
func (s *LedgerService) Record(ctx context.Context, in LedgerInput, actor models.Actor) (uint, error) {
	var id uint
	err := in.normalize()
	if err == nil {
		err = s.store.Write(ctx, func(ctx context.Context) error {
			entry, err := s.post(ctx, in, actor)
			if err != nil {
				return err
			}
			id = entry.ID
			return nil
		})
	}

	s.audit.Record(ctx, actor, audit.EventLedgerRecord,
		fmt.Sprintf("%s %s %s (%s)", in.EntryType, models.Money(in.Amount), in.Category, in.Date), err)
	return id, err
}

// post inserts an entry inside the caller's write. Other services use it
// to record the cash movement of a payment or a sale in the same
// transaction as the operation itself.
func (s *LedgerService) post(ctx context.Context, in LedgerInput, actor models.Actor) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{
		EntryType:   in.EntryType,
		Category:    in.Category,
		Date:        in.Date,
		Amount:      models.RoundMoney(in.Amount),
		Description: in.Description,
		CreatedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, classify("insert ledger entry", err)
	}
	return entry, nil
}

// FindByID returns a single entry
func (s *LedgerService) FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.repo.FindByID(ctx, id)
		return classify("find ledger entry", err)
	})
	return entry, err
}

// List returns entries newest first, or oldest first within a range
func (s *LedgerService) List(ctx context.Context, dateRange *models.DateRange) ([]models.LedgerEntry, error) {
	if dateRange != nil {
		if err := dateRange.Validate(); err != nil {
			return nil, invalid("range", err.Error())
		}
	}

	var entries []models.LedgerEntry
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		entries, err = s.repo.List(ctx, dateRange)
		return classify("list ledger entries", err)
	})
	return entries, err
}

// Update replaces every editable field of an existing entry
func (s *LedgerService) Update(ctx context.Context, id uint, in LedgerInput, actor models.Actor) error {
	err := in.normalize()
	if err == nil {
		err = s.store.Write(ctx, func(ctx context.Context) error {
			entry, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return classify(fmt.Sprintf("ledger entry %d", id), err)
			}
			entry.EntryType = in.EntryType
			entry.Category = in.Category
			entry.Amount = in.Amount
			entry.Date = in.Date
			entry.Description = in.Description
			return classify("update ledger entry", s.repo.Update(ctx, entry))
		})
	}

	s.audit.Record(ctx, actor, audit.EventLedgerUpdate, fmt.Sprintf("entry %d", id), err)
	return err
}

// Delete removes an entry. Deleting an id that does not exist is a
// successful no-op.
func (s *LedgerService) Delete(ctx context.Context, id uint, actor models.Actor) error {
	var removed int64
	err := s.store.Write(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.repo.Delete(ctx, id)
		return classify("delete ledger entry", err)
	})

	desc := fmt.Sprintf("entry %d", id)
	if err == nil && removed == 0 {
		desc += " (already absent)"
	}
	s.audit.Record(ctx, actor, audit.EventLedgerDelete, desc, err)
	return err
}

// Summary totals entries by type; absent types report zero
func (s *LedgerService) Summary(ctx context.Context, dateRange *models.DateRange) (*models.LedgerSummary, error) {
	if dateRange != nil {
		if err := dateRange.Validate(); err != nil {
			return nil, invalid("range", err.Error())
		}
	}

	var summary *models.LedgerSummary
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.repo.Summary(ctx, dateRange)
		return classify("summarize ledger", err)
	})
	return summary, err
}

// Categories returns the suggested categories per entry type
func (s *LedgerService) Categories() map[string][]string {
	return models.LedgerCategories
}

func today(now func() time.Time) models.Date {
	return models.DateOf(now())
}
