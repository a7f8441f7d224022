package repository

import (
	"context"
	"fmt"

	"github.com/sjperalta/dealer-ledger/internal/models"
)

// PlanFilter narrows a plan listing; zero values mean "any"
type PlanFilter struct {
	Status string
	// Range filters on next_payment_date.
	Range *models.DateRange
}

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	Create(ctx context.Context, plan *models.InstallmentPlan) error
	FindByID(ctx context.Context, id uint) (*models.InstallmentPlan, error)
	Save(ctx context.Context, plan *models.InstallmentPlan) error
	Delete(ctx context.Context, id uint) (int64, error)
	List(ctx context.Context, filter PlanFilter) ([]models.InstallmentPlan, error)
	ListActive(ctx context.Context) ([]models.InstallmentPlan, error)
	ListPastDue(ctx context.Context, today models.Date) ([]models.InstallmentPlan, error)

	CreatePayment(ctx context.Context, payment *models.InstallmentPayment) error
	ListPayments(ctx context.Context, planID uint) ([]models.InstallmentPayment, error)
	DeletePayments(ctx context.Context, planID uint) (int64, error)
}

type installmentRepository struct {
	db Connector
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db Connector) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) Create(ctx context.Context, plan *models.InstallmentPlan) error {
	return r.db.Conn(ctx).Omit("Payments").Create(plan).Error
}

func (r *installmentRepository) FindByID(ctx context.Context, id uint) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	if err := r.db.Conn(ctx).First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// Save writes the amounts, schedule and status of an existing plan
func (r *installmentRepository) Save(ctx context.Context, plan *models.InstallmentPlan) error {
	return r.db.Conn(ctx).Model(&models.InstallmentPlan{}).
		Where("id = ?", plan.ID).
		Updates(map[string]interface{}{
			"paid_amount":       plan.PaidAmount,
			"remaining_amount":  plan.RemainingAmount,
			"next_payment_date": plan.NextPaymentDate,
			"status":            plan.Status,
		}).Error
}

func (r *installmentRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.Conn(ctx).Delete(&models.InstallmentPlan{}, id)
	return result.RowsAffected, result.Error
}

// planOrder puts overdue plans first, then ongoing, then completed.
// prefix qualifies the columns when the plans table is aliased ("p.").
func planOrder(prefix string) string {
	return fmt.Sprintf("CASE %[1]sstatus WHEN 'overdue' THEN 0 WHEN 'ongoing' THEN 1 ELSE 2 END, %[1]snext_payment_date ASC, %[1]sid ASC", prefix)
}

func (r *installmentRepository) List(ctx context.Context, filter PlanFilter) ([]models.InstallmentPlan, error) {
	var plans []models.InstallmentPlan
	db := r.db.Conn(ctx)
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Range != nil {
		db = db.Where("next_payment_date BETWEEN ? AND ?", filter.Range.Start, filter.Range.End)
	}
	err := db.Order(planOrder("")).Find(&plans).Error
	return plans, err
}

// ListActive returns every plan that is not completed
func (r *installmentRepository) ListActive(ctx context.Context) ([]models.InstallmentPlan, error) {
	var plans []models.InstallmentPlan
	err := r.db.Conn(ctx).
		Where("status <> ?", models.PlanStatusCompleted).
		Order("id ASC").
		Find(&plans).Error
	return plans, err
}

// ListPastDue returns unpaid plans whose scheduled date is before today,
// oldest schedule first.
func (r *installmentRepository) ListPastDue(ctx context.Context, today models.Date) ([]models.InstallmentPlan, error) {
	var plans []models.InstallmentPlan
	err := r.db.Conn(ctx).
		Where("status <> ?", models.PlanStatusCompleted).
		Where("remaining_amount > 0").
		Where("next_payment_date < ?", today).
		Order("next_payment_date ASC, id ASC").
		Find(&plans).Error
	return plans, err
}

func (r *installmentRepository) CreatePayment(ctx context.Context, payment *models.InstallmentPayment) error {
	return r.db.Conn(ctx).Create(payment).Error
}

func (r *installmentRepository) ListPayments(ctx context.Context, planID uint) ([]models.InstallmentPayment, error) {
	var payments []models.InstallmentPayment
	err := r.db.Conn(ctx).
		Where("installment_id = ?", planID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *installmentRepository) DeletePayments(ctx context.Context, planID uint) (int64, error) {
	result := r.db.Conn(ctx).Where("installment_id = ?", planID).Delete(&models.InstallmentPayment{})
	return result.RowsAffected, result.Error
}
