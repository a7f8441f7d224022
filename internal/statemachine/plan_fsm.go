package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/dealer-ledger/internal/models"
)

// Event names
const (
	EventFallOverdue = "fall_overdue"
	EventComplete    = "complete"
	EventResume      = "resume"
)

// ErrNegativeBalance means paid exceeds total; the plan row is corrupt.
var ErrNegativeBalance = errors.New("paid amount exceeds plan total")

// PlanFSM wraps an installment plan with its state machine
type PlanFSM struct {
	plan *models.InstallmentPlan
	fsm  *fsm.FSM
}

// NewPlanFSM creates a new plan state machine
func NewPlanFSM(plan *models.InstallmentPlan) *PlanFSM {
	p := &PlanFSM{
		plan: plan,
	}

	p.fsm = fsm.NewFSM(
		plan.Status,
		fsm.Events{
			// ongoing → overdue (scheduled date passed with balance owing)
			{Name: EventFallOverdue, Src: []string{models.PlanStatusOngoing}, Dst: models.PlanStatusOverdue},

			// ongoing/overdue → completed (balance reached zero)
			{Name: EventComplete, Src: []string{models.PlanStatusOngoing, models.PlanStatusOverdue}, Dst: models.PlanStatusCompleted},

			// overdue → ongoing (a payment was recorded)
			{Name: EventResume, Src: []string{models.PlanStatusOverdue}, Dst: models.PlanStatusOngoing},
		},
		fsm.Callbacks{},
	)

	return p
}

// FallOverdue transitions the plan to overdue
func (p *PlanFSM) FallOverdue(ctx context.Context, today models.Date) error {
	if !p.plan.MayFallOverdue(today) {
		return fmt.Errorf("plan cannot become overdue in current state: %s", p.plan.Status)
	}
	return p.fire(ctx, EventFallOverdue)
}

// Complete transitions the plan to completed
func (p *PlanFSM) Complete(ctx context.Context) error {
	if !p.plan.MayComplete() {
		return fmt.Errorf("plan cannot be completed in current state: %s", p.plan.Status)
	}
	return p.fire(ctx, EventComplete)
}

// Resume returns an overdue plan to ongoing
func (p *PlanFSM) Resume(ctx context.Context) error {
	if !p.plan.MayResume() {
		return fmt.Errorf("plan cannot resume in current state: %s", p.plan.Status)
	}
	return p.fire(ctx, EventResume)
}

func (p *PlanFSM) fire(ctx context.Context, event string) error {
	if err := p.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to %s plan: %w", event, err)
	}
	p.plan.Status = p.fsm.Current()
	return nil
}

// Current returns the current state
func (p *PlanFSM) Current() string {
	return p.fsm.Current()
}

// Can checks if a transition is possible
func (p *PlanFSM) Can(event string) bool {
	return p.fsm.Can(event)
}

// Trigger says why a plan is being recomputed
type Trigger int

const (
	// TriggerRefresh is a periodic or on-read status evaluation.
	TriggerRefresh Trigger = iota
	// TriggerPayment follows a recorded payment; it clears overdue.
	TriggerPayment
)

// Recompute is the only place a plan's remaining amount and status are
// derived. remaining = total - paid; then completed wins, a payment clears
// overdue, and a refresh marks a past-due plan overdue. It reports whether
// the status changed.
func Recompute(ctx context.Context, plan *models.InstallmentPlan, today models.Date, trigger Trigger) (bool, error) {
	remaining := models.RoundMoney(plan.TotalAmount.Sub(plan.PaidAmount))
	if remaining.IsNegative() {
		return false, fmt.Errorf("plan %d: %w", plan.ID, ErrNegativeBalance)
	}
	plan.RemainingAmount = remaining

	if plan.Status == "" {
		plan.Status = models.PlanStatusOngoing
	}
	if plan.IsTerminal() {
		return false, nil
	}

	before := plan.Status
	machine := NewPlanFSM(plan)

	var err error
	switch {
	case plan.MayComplete():
		err = machine.Complete(ctx)
	case trigger == TriggerPayment && plan.MayResume():
		err = machine.Resume(ctx)
	case trigger == TriggerRefresh && plan.MayFallOverdue(today):
		err = machine.FallOverdue(ctx, today)
	}
	if err != nil {
		return false, err
	}

	return plan.Status != before, nil
}
