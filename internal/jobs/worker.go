package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// ErrStopped is returned when work is submitted after Shutdown
var ErrStopped = errors.New("worker is shut down")

// Job represents a background task
type Job func(ctx context.Context) error

// Worker manages background jobs and scheduled tasks
type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	queue    chan Job
	stopOnce sync.Once
	stopped  chan struct{}
	stats    WorkerStats
	statsMu  sync.RWMutex
}

// WorkerStats holds statistics about the worker. CompletedJobs counts
// every finished job; FailedJobs is the subset that returned an error
// or panicked.
type WorkerStats struct {
	Workers       int   `json:"workers"`
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	Scheduled     int   `json:"scheduled"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan Job, 100),
		stopped: make(chan struct{}),
	}
	w.stats.Workers = numWorkers

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to be processed by the worker pool. When the queue
// is full the job runs on the caller's goroutine.
func (w *Worker) Enqueue(job Job) error {
	select {
	case <-w.stopped:
		return ErrStopped
	default:
	}

	select {
	case w.queue <- job:
		return nil
	default:
		logger.Warn("Worker queue full, running job synchronously")
		w.run("inline", job)
		return nil
	}
}

// process handles jobs from the queue
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	name := fmt.Sprintf("worker-%d", workerID)
	for {
		select {
		case <-w.ctx.Done():
			return
		case job := <-w.queue:
			w.run(name, job)
		}
	}
}

// ScheduleEvery runs a job at fixed intervals. The first run happens
// after the interval.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, false, job)
}

// ScheduleEveryImmediate runs a job once at startup, then at fixed
// intervals.
func (w *Worker) ScheduleEveryImmediate(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, true, job)
}

func (w *Worker) schedule(name string, interval time.Duration, immediate bool, job Job) {
	w.statsMu.Lock()
	w.stats.Scheduled++
	w.statsMu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.run(name, job)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run(name, job)
			}
		}
	}()
}

// run executes one job, recovering panics and recording stats
func (w *Worker) run(name string, job Job) {
	w.trackJobStart()
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panic", "job", name, "panic", r)
			failed = true
		}
		w.trackJobEnd(failed)
	}()

	if err := job(w.ctx); err != nil {
		logger.Error("Job failed", "job", name, "error", err)
		failed = true
		return
	}
	logger.Debug("Job completed", "job", name, "duration", time.Since(start))
}

// Shutdown stops the schedulers, lets in-flight jobs finish and drops
// anything still queued. It is safe to call more than once.
func (w *Worker) Shutdown() {
	w.stopOnce.Do(func() {
		close(w.stopped)
		w.cancel()
		w.wg.Wait()
	})
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) trackJobEnd(failed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	if failed {
		w.stats.FailedJobs++
	}
}
