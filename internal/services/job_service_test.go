package services

import (
	"context"
	"testing"
	"time"

	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobService_StatusReportsLastRefresh(t *testing.T) {
	h := newHarness(t)
	id := newPlan(t, h)

	status := h.svc.Job.GetStatus()
	assert.Equal(t, "disabled", status.StatusRefresh.Interval)
	assert.Nil(t, status.StatusRefresh.LastRun)

	h.fixClock(models.NewDate(2024, 3, 15))
	require.NoError(t, h.svc.Job.refreshStatuses(context.Background()))

	status = h.svc.Job.GetStatus()
	require.NotNil(t, status.StatusRefresh.LastRun)
	assert.Equal(t, "2024-03-15", status.StatusRefresh.LastRun.Format("2006-01-02"))
	assert.Equal(t, 1, status.StatusRefresh.Changed)
	assert.Empty(t, status.StatusRefresh.Error)

	plan, err := h.svc.Installment.GetPlan(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusOverdue, plan.Status)
}

func TestJobService_StatusKeepsRefreshFailure(t *testing.T) {
	h := newHarness(t)
	h.svc.Job.StartStatusRefresh(time.Hour)
	require.Eventually(t, func() bool {
		return h.svc.Job.GetStatus().StatusRefresh.LastRun != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "1h0m0s", h.svc.Job.GetStatus().StatusRefresh.Interval)

	require.NoError(t, h.handle.Close())
	err := h.svc.Job.refreshStatuses(context.Background())
	assert.ErrorIs(t, err, ErrStorage)
	assert.NotEmpty(t, h.svc.Job.GetStatus().StatusRefresh.Error)
}
