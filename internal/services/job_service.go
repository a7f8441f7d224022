package services

import (
	"context"
	"sync"
	"time"

	"github.com/sjperalta/dealer-ledger/internal/jobs"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// RefreshRun describes the latest scheduled plan status refresh.
type RefreshRun struct {
	Interval string     `json:"interval"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	Changed  int        `json:"changed"`
	Error    string     `json:"error,omitempty"`
}

// JobStatus is what /jobs/status reports
type JobStatus struct {
	Worker        jobs.WorkerStats `json:"worker"`
	StatusRefresh RefreshRun       `json:"status_refresh"`
}

type JobService struct {
	worker       *jobs.Worker
	installments *InstallmentService

	mu      sync.Mutex
	refresh RefreshRun
}

func NewJobService(worker *jobs.Worker, installments *InstallmentService) *JobService {
	return &JobService{
		worker:       worker,
		installments: installments,
		refresh:      RefreshRun{Interval: "disabled"},
	}
}

func (s *JobService) GetStatus() JobStatus {
	s.mu.Lock()
	refresh := s.refresh
	s.mu.Unlock()
	return JobStatus{Worker: s.worker.GetStats(), StatusRefresh: refresh}
}

// StartStatusRefresh re-evaluates plan statuses at startup and then on
// every interval. A non-positive interval disables it.
func (s *JobService) StartStatusRefresh(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.refresh.Interval = interval.String()
	s.mu.Unlock()
	s.worker.ScheduleEveryImmediate("installment-status-refresh", interval, s.refreshStatuses)
}

func (s *JobService) refreshStatuses(ctx context.Context) error {
	changed, err := s.installments.RefreshStatuses(ctx, models.Date{}, models.SystemActor)

	ranAt := s.installments.now()
	s.mu.Lock()
	s.refresh.LastRun = &ranAt
	s.refresh.Changed = changed
	s.refresh.Error = ""
	if err != nil {
		s.refresh.Error = UserMessage(err)
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	logger.Info("Installment statuses refreshed", "changed", changed)
	return nil
}
