package services

import (
	"context"
	"testing"

	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_RecordAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	incomeID, err := h.svc.Ledger.Record(ctx, LedgerInput{
		EntryType: "Income ",
		Category:  "Commissions",
		Amount:    money("100.005"),
		Date:      models.NewDate(2024, 3, 1),
	}, testActor)
	require.NoError(t, err)
	assert.NotZero(t, incomeID)

	_, err = h.svc.Ledger.Record(ctx, LedgerInput{
		EntryType: models.EntryTypeExpense,
		Category:  "Rent",
		Amount:    money("40"),
		Date:      models.NewDate(2024, 3, 2),
	}, testActor)
	require.NoError(t, err)

	entries := h.ledgerEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "Rent", entries[0].Category, "unbounded list is newest first")
	assert.Equal(t, models.EntryTypeIncome, entries[1].EntryType)
	assertMoney(t, "100.01", entries[1].Amount)
	assert.Equal(t, testActor.ID, entries[1].CreatedBy)

	ranged, err := h.svc.Ledger.List(ctx, &models.DateRange{
		Start: models.NewDate(2024, 3, 1),
		End:   models.NewDate(2024, 3, 31),
	})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "Commissions", ranged[0].Category, "ranged list is oldest first")

	events := h.events(t, audit.EventLedgerRecord)
	require.Len(t, events, 2)
	assert.Equal(t, audit.Success, events[0].Outcome)
}

func TestLedgerService_RecordRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]LedgerInput{
		"unknown type": {EntryType: "gift", Category: "Other", Amount: money("1"), Date: models.NewDate(2024, 1, 1)},
		"no category":  {EntryType: models.EntryTypeIncome, Amount: money("1"), Date: models.NewDate(2024, 1, 1)},
		"zero amount":  {EntryType: models.EntryTypeIncome, Category: "Other", Amount: money("0.004"), Date: models.NewDate(2024, 1, 1)},
		"negative":     {EntryType: models.EntryTypeExpense, Category: "Rent", Amount: money("-5"), Date: models.NewDate(2024, 1, 1)},
		"missing date": {EntryType: models.EntryTypeExpense, Category: "Rent", Amount: money("5")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Ledger.Record(ctx, in, testActor)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Empty(t, h.ledgerEntries(t))
	failures, err := h.trail.Read(audit.Filter{EventType: audit.EventLedgerRecord, FailedOnly: true})
	require.NoError(t, err)
	assert.Len(t, failures, len(cases))
}

func TestLedgerService_Update(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id, err := h.svc.Ledger.Record(ctx, LedgerInput{
		EntryType: models.EntryTypeExpense, Category: "Rent", Amount: money("500"), Date: models.NewDate(2024, 2, 1),
	}, testActor)
	require.NoError(t, err)

	err = h.svc.Ledger.Update(ctx, id, LedgerInput{
		EntryType: models.EntryTypeExpense, Category: "Utilities", Amount: money("75.50"),
		Date: models.NewDate(2024, 2, 3), Description: "power",
	}, testActor)
	require.NoError(t, err)

	entry, err := h.svc.Ledger.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Utilities", entry.Category)
	assertMoney(t, "75.50", entry.Amount)
	assert.Equal(t, "2024-02-03", entry.Date.String())
	assert.Equal(t, "power", entry.Description)

	err = h.svc.Ledger.Update(ctx, id+100, LedgerInput{
		EntryType: models.EntryTypeExpense, Category: "Rent", Amount: money("1"), Date: models.NewDate(2024, 2, 3),
	}, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerService_DeleteIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id, err := h.svc.Ledger.Record(ctx, LedgerInput{
		EntryType: models.EntryTypeIncome, Category: "Other income", Amount: money("10"), Date: models.NewDate(2024, 2, 1),
	}, testActor)
	require.NoError(t, err)

	require.NoError(t, h.svc.Ledger.Delete(ctx, id, testActor))
	require.NoError(t, h.svc.Ledger.Delete(ctx, id, testActor))
	assert.Empty(t, h.ledgerEntries(t))

	events := h.events(t, audit.EventLedgerDelete)
	require.Len(t, events, 2)
	assert.Contains(t, events[0].Description, "already absent")
}

func TestLedgerService_Summary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	empty, err := h.svc.Ledger.Summary(ctx, nil)
	require.NoError(t, err)
	assert.True(t, empty.Income.Total.IsZero())
	assert.True(t, empty.Expense.Total.IsZero())
	assert.Zero(t, empty.Income.Count)

	for _, in := range []LedgerInput{
		{EntryType: models.EntryTypeIncome, Category: "Commissions", Amount: money("100"), Date: models.NewDate(2024, 1, 10)},
		{EntryType: models.EntryTypeIncome, Category: "Maintenance", Amount: money("50.25"), Date: models.NewDate(2024, 1, 20)},
		{EntryType: models.EntryTypeExpense, Category: "Rent", Amount: money("30"), Date: models.NewDate(2024, 2, 1)},
	} {
		_, err := h.svc.Ledger.Record(ctx, in, testActor)
		require.NoError(t, err)
	}

	summary, err := h.svc.Ledger.Summary(ctx, nil)
	require.NoError(t, err)
	assertMoney(t, "150.25", summary.Income.Total)
	assert.EqualValues(t, 2, summary.Income.Count)
	assertMoney(t, "30.00", summary.Expense.Total)
	assertMoney(t, "120.25", summary.Net())

	january, err := h.svc.Ledger.Summary(ctx, &models.DateRange{
		Start: models.NewDate(2024, 1, 1),
		End:   models.NewDate(2024, 1, 31),
	})
	require.NoError(t, err)
	assert.True(t, january.Expense.Total.IsZero())

	_, err = h.svc.Ledger.Summary(ctx, &models.DateRange{
		Start: models.NewDate(2024, 2, 1),
		End:   models.NewDate(2024, 1, 1),
	})
	assert.ErrorIs(t, err, ErrValidation)
}
