package statemachine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plan(total, paid int64, status string, next models.Date) *models.InstallmentPlan {
	return &models.InstallmentPlan{
		ID:              1,
		TotalAmount:     decimal.NewFromInt(total),
		PaidAmount:      decimal.NewFromInt(paid),
		Status:          status,
		NextPaymentDate: next,
	}
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()
	march1 := models.NewDate(2024, 3, 1)
	april15 := models.NewDate(2024, 4, 15)

	tests := []struct {
		name        string
		plan        *models.InstallmentPlan
		today       models.Date
		trigger     Trigger
		wantStatus  string
		wantChanged bool
	}{
		{"refresh past due falls overdue", plan(100, 30, models.PlanStatusOngoing, march1), april15, TriggerRefresh, models.PlanStatusOverdue, true},
		{"refresh not yet due stays ongoing", plan(100, 30, models.PlanStatusOngoing, april15), march1, TriggerRefresh, models.PlanStatusOngoing, false},
		{"due today is not overdue", plan(100, 30, models.PlanStatusOngoing, april15), april15, TriggerRefresh, models.PlanStatusOngoing, false},
		{"refresh keeps overdue", plan(100, 30, models.PlanStatusOverdue, march1), april15, TriggerRefresh, models.PlanStatusOverdue, false},
		{"paid off completes", plan(100, 100, models.PlanStatusOngoing, march1), april15, TriggerRefresh, models.PlanStatusCompleted, true},
		{"paid off overdue completes", plan(100, 100, models.PlanStatusOverdue, march1), april15, TriggerPayment, models.PlanStatusCompleted, true},
		{"payment clears overdue", plan(100, 50, models.PlanStatusOverdue, march1), april15, TriggerPayment, models.PlanStatusOngoing, true},
		{"payment does not mark overdue", plan(100, 50, models.PlanStatusOngoing, march1), april15, TriggerPayment, models.PlanStatusOngoing, false},
		{"completed is terminal", plan(100, 100, models.PlanStatusCompleted, march1), april15, TriggerRefresh, models.PlanStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := Recompute(ctx, tt.plan, tt.today, tt.trigger)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, tt.plan.Status)
			assert.Equal(t, tt.wantChanged, changed)
			assert.True(t, tt.plan.RemainingAmount.Equal(tt.plan.TotalAmount.Sub(tt.plan.PaidAmount)))
		})
	}
}

func TestRecompute_RejectsNegativeBalance(t *testing.T) {
	p := plan(100, 120, models.PlanStatusOngoing, models.NewDate(2024, 3, 1))
	_, err := Recompute(context.Background(), p, models.NewDate(2024, 3, 1), TriggerPayment)
	assert.ErrorIs(t, err, ErrNegativeBalance)
}

func TestPlanFSM_GuardsInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	p := plan(100, 100, models.PlanStatusCompleted, models.NewDate(2024, 3, 1))
	machine := NewPlanFSM(p)

	assert.Error(t, machine.Resume(ctx))
	assert.Error(t, machine.FallOverdue(ctx, models.NewDate(2024, 5, 1)))
	assert.False(t, machine.Can(EventFallOverdue))
	assert.Equal(t, models.PlanStatusCompleted, machine.Current())
}
