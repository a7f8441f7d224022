package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/statemachine"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// CreatePlanInput describes a new installment plan
type CreatePlanInput struct {
	CarID            uint            `json:"car_id"`
	ClientID         uint            `json:"client_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	InstallmentCount int             `json:"installment_count"`
	StartDate        models.Date     `json:"start_date"`
	Notes            string          `json:"notes"`
}

func (in *CreatePlanInput) normalize() error {
	in.TotalAmount = models.RoundMoney(in.TotalAmount)
	in.DownPayment = models.RoundMoney(in.DownPayment)

	switch {
	case in.CarID == 0:
		return invalid("car_id", "is required")
	case in.ClientID == 0:
		return invalid("client_id", "is required")
	case !in.TotalAmount.IsPositive():
		return invalid("total_amount", "must be greater than zero")
	case in.DownPayment.IsNegative():
		return invalid("down_payment", "cannot be negative")
	case in.DownPayment.GreaterThanOrEqual(in.TotalAmount):
		return invalid("down_payment", "must be less than the total amount")
	case in.InstallmentCount < 1:
		return invalid("installment_count", "must be at least 1")
	case in.StartDate.IsZero():
		return invalid("start_date", "is required")
	}
	return nil
}

// PaymentInput describes one payment against a plan
type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   models.Date     `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
}

func (in *PaymentInput) normalize() error {
	in.Amount = models.RoundMoney(in.Amount)
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))

	switch {
	case !in.Amount.IsPositive():
		return invalid("amount", "must be greater than zero")
	case in.PaymentDate.IsZero():
		return invalid("payment_date", "is required")
	case !models.IsValidPaymentMethod(in.PaymentMethod):
		return invalid("payment_method", "must be cash, check or bank_transfer")
	}
	return nil
}

// InstallmentService owns installment plans and their payments. It is the
// only writer of a plan's paid, remaining, next payment and status fields.
type InstallmentService struct {
	store   Store
	repo    repository.InstallmentRepository
	parties *InventoryService
	ledger  *LedgerService
	audit   *audit.Trail
	now     func() time.Time
}

func NewInstallmentService(store Store, repo repository.InstallmentRepository, parties *InventoryService, ledger *LedgerService, trail *audit.Trail) *InstallmentService {
	return &InstallmentService{
		store:   store,
		repo:    repo,
		parties: parties,
		ledger:  ledger,
		audit:   trail,
		now:     time.Now,
	}
}

// CreatePlan opens a plan and posts its down payment to the ledger
func (s *InstallmentService) CreatePlan(ctx context.Context, in CreatePlanInput, actor models.Actor) (uint, error) {
	var id uint
	err := in.normalize()
	if err == nil {
		err = s.store.Write(ctx, func(ctx context.Context) error {
			if err := s.parties.requireParties(ctx, in.CarID, in.ClientID); err != nil {
				return err
			}
			plan := &models.InstallmentPlan{
				CarID:            in.CarID,
				ClientID:         in.ClientID,
				TotalAmount:      in.TotalAmount,
				PaidAmount:       in.DownPayment,
				InstallmentCount: in.InstallmentCount,
				StartDate:        in.StartDate,
				NextPaymentDate:  in.StartDate.AddMonths(1),
				Status:           models.PlanStatusOngoing,
				Notes:            in.Notes,
				CreatedBy:        actor.ID,
			}
			if _, err := statemachine.Recompute(ctx, plan, today(s.now), statemachine.TriggerPayment); err != nil {
				return invalid("down_payment", err.Error())
			}
			if err := s.repo.Create(ctx, plan); err != nil {
				return classify("insert installment plan", err)
			}

			if in.DownPayment.IsPositive() {
				_, err := s.ledger.post(ctx, LedgerInput{
					EntryType:   models.EntryTypeIncome,
					Category:    models.CategoryInstallments,
					Amount:      in.DownPayment,
					Date:        in.StartDate,
					Description: fmt.Sprintf("down payment for plan %d", plan.ID),
				}, actor)
				if err != nil {
					return err
				}
			}
			id = plan.ID
			return nil
		})
	}

	s.audit.Record(ctx, actor, audit.EventInstallmentCreate,
		fmt.Sprintf("plan %d for client %d car %d total %s down %s", id, in.ClientID, in.CarID,
			models.Money(in.TotalAmount), models.Money(in.DownPayment)), err)
	return id, err
}

// RecordPayment applies a payment to a plan. The payment row, the plan
// update and the ledger entry commit together or not at all.
func (s *InstallmentService) RecordPayment(ctx context.Context, planID uint, in PaymentInput, actor models.Actor) (*models.InstallmentPlan, error) {
	var plan *models.InstallmentPlan
	err := in.normalize()
	if err == nil {
		err = s.store.Write(ctx, func(ctx context.Context) error {
			var err error
			plan, err = s.repo.FindByID(ctx, planID)
			if err != nil {
				return classify(fmt.Sprintf("installment plan %d", planID), err)
			}
			if in.Amount.GreaterThan(plan.RemainingAmount) {
				return fmt.Errorf("%w: %s > %s", ErrOverpayment,
					models.Money(in.Amount), models.Money(plan.RemainingAmount))
			}

			payment := &models.InstallmentPayment{
				InstallmentID: plan.ID,
				PaymentDate:   in.PaymentDate,
				Amount:        in.Amount,
				PaymentMethod: in.PaymentMethod,
				Notes:         in.Notes,
				CreatedBy:     actor.ID,
			}
			if err := s.repo.CreatePayment(ctx, payment); err != nil {
				return classify("insert installment payment", err)
			}

			plan.PaidAmount = models.RoundMoney(plan.PaidAmount.Add(in.Amount))
			plan.NextPaymentDate = plan.NextPaymentDate.AddMonths(1)
			if _, err := statemachine.Recompute(ctx, plan, in.PaymentDate, statemachine.TriggerPayment); err != nil {
				return fmt.Errorf("%w: %v", ErrOverpayment, err)
			}
			if err := s.repo.Save(ctx, plan); err != nil {
				return classify("update installment plan", err)
			}

			_, err = s.ledger.post(ctx, LedgerInput{
				EntryType:   models.EntryTypeIncome,
				Category:    models.CategoryInstallments,
				Amount:      in.Amount,
				Date:        in.PaymentDate,
				Description: fmt.Sprintf("payment for plan %d", plan.ID),
			}, actor)
			return err
		})
	}

	s.audit.Record(ctx, actor, audit.EventInstallmentPayment,
		fmt.Sprintf("payment of %s for plan %d", models.Money(in.Amount), planID), err)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan removes a plan and its payments. Ledger entries already
// posted for it stay.
func (s *InstallmentService) DeletePlan(ctx context.Context, planID uint, actor models.Actor) error {
	var payments int64
	err := s.store.Write(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, planID); err != nil {
			return classify(fmt.Sprintf("installment plan %d", planID), err)
		}
		var err error
		if payments, err = s.repo.DeletePayments(ctx, planID); err != nil {
			return classify("delete installment payments", err)
		}
		_, err = s.repo.Delete(ctx, planID)
		return classify("delete installment plan", err)
	})

	s.audit.Record(ctx, actor, audit.EventInstallmentDelete,
		fmt.Sprintf("plan %d with %d payments", planID, payments), err)
	return err
}

// ListPlans returns plans overdue first, then ongoing, then completed
func (s *InstallmentService) ListPlans(ctx context.Context, filter repository.PlanFilter) ([]models.InstallmentPlan, error) {
	if filter.Status != "" && !models.IsValidPlanStatus(filter.Status) {
		return nil, invalid("status", "must be ongoing, overdue or completed")
	}
	if filter.Range != nil {
		if err := filter.Range.Validate(); err != nil {
			return nil, invalid("range", err.Error())
		}
	}

	var plans []models.InstallmentPlan
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		plans, err = s.repo.List(ctx, filter)
		return classify("list installment plans", err)
	})
	return plans, err
}

// ListOverdue returns the plans that are overdue as of the given day,
// most days late first. The stored status is not consulted, so moving
// today before a plan's next payment date drops it from the list.
func (s *InstallmentService) ListOverdue(ctx context.Context, asOf models.Date) ([]models.OverduePlan, error) {
	if asOf.IsZero() {
		asOf = today(s.now)
	}

	var plans []models.InstallmentPlan
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		plans, err = s.repo.ListPastDue(ctx, asOf)
		return classify("list overdue plans", err)
	})
	if err != nil {
		return nil, err
	}

	overdue := make([]models.OverduePlan, 0, len(plans))
	for _, p := range plans {
		p.Status = models.PlanStatusOverdue
		overdue = append(overdue, models.OverduePlan{InstallmentPlan: p, DaysLate: p.DaysLate(asOf)})
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DaysLate > overdue[j].DaysLate
	})
	return overdue, nil
}

// RefreshStatuses applies the status rule to every plan that is not
// completed and persists the ones that changed.
func (s *InstallmentService) RefreshStatuses(ctx context.Context, asOf models.Date, actor models.Actor) (int, error) {
	if asOf.IsZero() {
		asOf = today(s.now)
	}

	changed := 0
	err := s.store.Write(ctx, func(ctx context.Context) error {
		plans, err := s.repo.ListActive(ctx)
		if err != nil {
			return classify("list active plans", err)
		}
		for i := range plans {
			plan := &plans[i]
			moved, err := statemachine.Recompute(ctx, plan, asOf, statemachine.TriggerRefresh)
			if err != nil {
				logger.Warn("Skipping plan with inconsistent balance", "plan_id", plan.ID, "error", err)
				continue
			}
			if !moved {
				continue
			}
			if err := s.repo.Save(ctx, plan); err != nil {
				return classify("update plan status", err)
			}
			changed++
		}
		return nil
	})

	if err != nil || changed > 0 {
		s.audit.Record(ctx, actor, audit.EventInstallmentRefresh,
			fmt.Sprintf("%d plans changed status as of %s", changed, asOf), err)
	}
	return changed, err
}

// GetPlan returns a plan with its payments
func (s *InstallmentService) GetPlan(ctx context.Context, planID uint) (*models.InstallmentPlan, error) {
	var plan *models.InstallmentPlan
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		if plan, err = s.repo.FindByID(ctx, planID); err != nil {
			return classify(fmt.Sprintf("installment plan %d", planID), err)
		}
		plan.Payments, err = s.repo.ListPayments(ctx, planID)
		return classify("list installment payments", err)
	})
	return plan, err
}

// ListPayments returns the payments of a plan in the order they were made
func (s *InstallmentService) ListPayments(ctx context.Context, planID uint) ([]models.InstallmentPayment, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return plan.Payments, nil
}
