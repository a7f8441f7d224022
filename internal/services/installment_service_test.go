package services

import (
	"context"
	"testing"

	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPlan opens the reference plan: 120000 total, 20000 down, ten
// installments starting 2024-01-01.
func newPlan(t *testing.T, h *harness) uint {
	t.Helper()
	car, client := h.seedCarAndClient(t)
	h.fixClock(models.NewDate(2024, 1, 1))

	id, err := h.svc.Installment.CreatePlan(context.Background(), CreatePlanInput{
		CarID:            car.ID,
		ClientID:         client.ID,
		TotalAmount:      money("120000"),
		DownPayment:      money("20000"),
		InstallmentCount: 10,
		StartDate:        models.NewDate(2024, 1, 1),
	}, testActor)
	require.NoError(t, err)
	return id
}

func pay(h *harness, planID uint, amount string, day models.Date) (*models.InstallmentPlan, error) {
	return h.svc.Installment.RecordPayment(context.Background(), planID, PaymentInput{
		Amount:        money(amount),
		PaymentDate:   day,
		PaymentMethod: models.PaymentMethodCash,
	}, testActor)
}

func TestInstallmentService_CreatePlan(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)

	plan, err := h.svc.Installment.GetPlan(context.Background(), id)
	require.NoError(t, err)
	assertMoney(t, "20000.00", plan.PaidAmount)
	assertMoney(t, "100000.00", plan.RemainingAmount)
	assert.Equal(t, "2024-02-01", plan.NextPaymentDate.String())
	assert.Equal(t, models.PlanStatusOngoing, plan.Status)
	assert.Empty(t, plan.Payments)

	entries := h.ledgerEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, models.CategoryInstallments, entries[0].Category)
	assertMoney(t, "20000.00", entries[0].Amount)
	assert.Equal(t, "2024-01-01", entries[0].Date.String())
}

func TestInstallmentService_CreatePlanWithoutDownPayment(t *testing.T) {
	h := newHarness(t)
	car, client := h.seedCarAndClient(t)

	_, err := h.svc.Installment.CreatePlan(context.Background(), CreatePlanInput{
		CarID: car.ID, ClientID: client.ID, TotalAmount: money("5000"),
		InstallmentCount: 5, StartDate: models.NewDate(2024, 5, 31),
	}, testActor)
	require.NoError(t, err)

	plans, err := h.svc.Installment.ListPlans(context.Background(), repository.PlanFilter{})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "2024-06-30", plans[0].NextPaymentDate.String())
	assert.Empty(t, h.ledgerEntries(t), "no ledger entry without a down payment")
}

func TestInstallmentService_CreatePlanValidation(t *testing.T) {
	h := newHarness(t)
	car, client := h.seedCarAndClient(t)
	ctx := context.Background()

	base := CreatePlanInput{
		CarID: car.ID, ClientID: client.ID, TotalAmount: money("1000"), DownPayment: money("100"),
		InstallmentCount: 4, StartDate: models.NewDate(2024, 1, 1),
	}

	downTooLarge := base
	downTooLarge.DownPayment = money("1000")
	noCount := base
	noCount.InstallmentCount = 0
	noStart := base
	noStart.StartDate = models.Date{}

	for name, in := range map[string]CreatePlanInput{
		"down payment equals total": downTooLarge,
		"no installments":           noCount,
		"no start date":             noStart,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Installment.CreatePlan(ctx, in, testActor)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	plans, err := h.svc.Installment.ListPlans(ctx, repository.PlanFilter{})
	require.NoError(t, err)
	assert.Empty(t, plans)
	assert.Empty(t, h.ledgerEntries(t))
}

func TestInstallmentService_RecordPayment(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)

	plan, err := pay(h, id, "10000", models.NewDate(2024, 2, 5))
	require.NoError(t, err)
	assertMoney(t, "30000.00", plan.PaidAmount)
	assertMoney(t, "90000.00", plan.RemainingAmount)
	assert.Equal(t, "2024-03-01", plan.NextPaymentDate.String())
	assert.Equal(t, models.PlanStatusOngoing, plan.Status)

	payments, err := h.svc.Installment.ListPayments(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assertMoney(t, "10000.00", payments[0].Amount)

	entries := h.ledgerEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-02-05", entries[0].Date.String())
	assert.Equal(t, models.CategoryInstallments, entries[0].Category)

	events := h.events(t, audit.EventInstallmentPayment)
	require.Len(t, events, 1)
	assert.Equal(t, audit.Success, events[0].Outcome)
}

func TestInstallmentService_OverpaymentChangesNothing(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)

	_, err := pay(h, id, "100000.01", models.NewDate(2024, 2, 5))
	assert.ErrorIs(t, err, ErrOverpayment)
	assert.ErrorIs(t, err, ErrValidation)

	plan, err := h.svc.Installment.GetPlan(context.Background(), id)
	require.NoError(t, err)
	assertMoney(t, "20000.00", plan.PaidAmount)
	assertMoney(t, "100000.00", plan.RemainingAmount)
	assert.Empty(t, plan.Payments)
	assert.Len(t, h.ledgerEntries(t), 1)

	failed, err := h.trail.Read(audit.Filter{EventType: audit.EventInstallmentPayment, FailedOnly: true})
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestInstallmentService_PaymentValidation(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)
	ctx := context.Background()

	_, err := h.svc.Installment.RecordPayment(ctx, id, PaymentInput{
		Amount: money("10"), PaymentDate: models.NewDate(2024, 2, 1), PaymentMethod: "bitcoin",
	}, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = pay(h, id, "0", models.NewDate(2024, 2, 1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = pay(h, id+50, "10", models.NewDate(2024, 2, 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInstallmentService_PayingOffCompletesPlan(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)

	_, err := pay(h, id, "60000", models.NewDate(2024, 2, 1))
	require.NoError(t, err)
	plan, err := pay(h, id, "40000", models.NewDate(2024, 3, 1))
	require.NoError(t, err)

	assert.Equal(t, models.PlanStatusCompleted, plan.Status)
	assert.True(t, plan.RemainingAmount.IsZero())
	assertMoney(t, "120000.00", plan.PaidAmount)

	_, err = pay(h, id, "1", models.NewDate(2024, 4, 1))
	assert.ErrorIs(t, err, ErrOverpayment)

	changed, err := h.svc.Installment.RefreshStatuses(context.Background(), models.NewDate(2025, 1, 1), models.SystemActor)
	require.NoError(t, err)
	assert.Zero(t, changed, "completed plans are terminal")
}

func TestInstallmentService_ListOverdue(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)
	ctx := context.Background()

	_, err := pay(h, id, "10000", models.NewDate(2024, 2, 5))
	require.NoError(t, err)

	overdue, err := h.svc.Installment.ListOverdue(ctx, models.NewDate(2024, 4, 15))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, id, overdue[0].ID)
	assert.Equal(t, 45, overdue[0].DaysLate)
	assert.Equal(t, models.PlanStatusOverdue, overdue[0].Status)

	// Same store, earlier "today": the plan is not late yet.
	overdue, err = h.svc.Installment.ListOverdue(ctx, models.NewDate(2024, 2, 20))
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// Due today is not overdue.
	overdue, err = h.svc.Installment.ListOverdue(ctx, models.NewDate(2024, 3, 1))
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestInstallmentService_RefreshStatusesAndResume(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)
	ctx := context.Background()

	changed, err := h.svc.Installment.RefreshStatuses(ctx, models.NewDate(2024, 2, 1), models.SystemActor)
	require.NoError(t, err)
	assert.Zero(t, changed)

	changed, err = h.svc.Installment.RefreshStatuses(ctx, models.NewDate(2024, 3, 10), models.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	plan, err := h.svc.Installment.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusOverdue, plan.Status)

	overdueOnly, err := h.svc.Installment.ListPlans(ctx, repository.PlanFilter{Status: models.PlanStatusOverdue})
	require.NoError(t, err)
	assert.Len(t, overdueOnly, 1)

	plan, err = pay(h, id, "10000", models.NewDate(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusOngoing, plan.Status)
	assert.Equal(t, "2024-03-01", plan.NextPaymentDate.String())

	assert.Len(t, h.events(t, audit.EventInstallmentRefresh), 1)
}

func TestInstallmentService_DeletePlanKeepsLedger(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)
	ctx := context.Background()

	_, err := pay(h, id, "5000", models.NewDate(2024, 2, 1))
	require.NoError(t, err)

	require.NoError(t, h.svc.Installment.DeletePlan(ctx, id, testActor))

	_, err = h.svc.Installment.GetPlan(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, h.ledgerEntries(t), 2)

	assert.ErrorIs(t, h.svc.Installment.DeletePlan(ctx, id, testActor), ErrNotFound)
}

func TestInstallmentService_CreatePlanRequiresCarAndClient(t *testing.T) {
	h := newHarness(t)
	car, client := h.seedCarAndClient(t)
	ctx := context.Background()

	base := CreatePlanInput{
		TotalAmount: money("1000"), DownPayment: money("100"),
		InstallmentCount: 2, StartDate: models.NewDate(2024, 1, 1),
	}
	for name, ids := range map[string][2]uint{
		"car_id":    {999, client.ID},
		"client_id": {car.ID, 888},
	} {
		t.Run(name, func(t *testing.T) {
			in := base
			in.CarID, in.ClientID = ids[0], ids[1]
			_, err := h.svc.Installment.CreatePlan(ctx, in, testActor)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, name, verr.Field)
		})
	}

	plans, err := h.svc.Installment.ListPlans(ctx, repository.PlanFilter{})
	require.NoError(t, err)
	assert.Empty(t, plans)
	assert.Empty(t, h.ledgerEntries(t))
}

func TestInstallmentService_PaymentRollsBackWhenLedgerFails(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)
	h.breakLedger(t)

	_, err := pay(h, id, "10000", models.NewDate(2024, 2, 5))
	require.ErrorIs(t, err, ErrStorage)
	assert.True(t, IsRetryable(err))

	plan, err := h.svc.Installment.GetPlan(context.Background(), id)
	require.NoError(t, err)
	assertMoney(t, "20000.00", plan.PaidAmount)
	assertMoney(t, "100000.00", plan.RemainingAmount)
	assert.Equal(t, "2024-02-01", plan.NextPaymentDate.String())
	assert.Equal(t, models.PlanStatusOngoing, plan.Status)
	assert.Empty(t, plan.Payments)
	assert.Len(t, h.ledgerEntries(t), 1)

	failed, err := h.trail.Read(audit.Filter{EventType: audit.EventInstallmentPayment, FailedOnly: true})
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}
