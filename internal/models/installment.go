package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Plan status constants
const (
	PlanStatusOngoing   = "ongoing"
	PlanStatusOverdue   = "overdue"
	PlanStatusCompleted = "completed"
)

// Payment method constants
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCheck        = "check"
	PaymentMethodBankTransfer = "bank_transfer"
)

// IsValidPaymentMethod reports whether m is an accepted installment payment method
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// IsValidPlanStatus reports whether s is a known plan status
func IsValidPlanStatus(s string) bool {
	switch s {
	case PlanStatusOngoing, PlanStatusOverdue, PlanStatusCompleted:
		return true
	}
	return false
}

// InstallmentPlan finances one car for one client on a monthly schedule.
// RemainingAmount and Status are projections of the other fields; they are
// only ever written by the installment service's recompute step.
type InstallmentPlan struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CarID            uint            `gorm:"not null;index" json:"car_id"`
	ClientID         uint            `gorm:"not null;index" json:"client_id"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"paid_amount"`
	RemainingAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"remaining_amount"`
	InstallmentCount int             `gorm:"not null" json:"installment_count"`
	StartDate        Date            `gorm:"type:varchar(10);not null;index" json:"start_date"`
	NextPaymentDate  Date            `gorm:"type:varchar(10);index" json:"next_payment_date"`
	Status           string          `gorm:"size:20;not null;default:'ongoing';index" json:"status"`
	Notes            string          `gorm:"type:text" json:"notes"`
	CreatedBy        uint            `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Associations
	Payments []InstallmentPayment `gorm:"foreignKey:InstallmentID" json:"payments,omitempty"`
}

// TableName specifies the table name for InstallmentPlan
func (InstallmentPlan) TableName() string {
	return "installment_plans"
}

// AfterFind normalizes amounts read back from drivers that store floats
func (p *InstallmentPlan) AfterFind(tx *gorm.DB) error {
	p.TotalAmount = RoundMoney(p.TotalAmount)
	p.PaidAmount = RoundMoney(p.PaidAmount)
	p.RemainingAmount = RoundMoney(p.RemainingAmount)
	return nil
}

// IsTerminal reports whether the plan can no longer change status
func (p *InstallmentPlan) IsTerminal() bool {
	return p.Status == PlanStatusCompleted
}

// MayFallOverdue checks if the plan can move to overdue on the given day
func (p *InstallmentPlan) MayFallOverdue(today Date) bool {
	return p.Status == PlanStatusOngoing &&
		p.RemainingAmount.IsPositive() &&
		p.NextPaymentDate.Before(today)
}

// MayComplete checks if the plan has been paid off
func (p *InstallmentPlan) MayComplete() bool {
	return (p.Status == PlanStatusOngoing || p.Status == PlanStatusOverdue) &&
		p.RemainingAmount.IsZero()
}

// MayResume checks if an overdue plan can return to ongoing after a payment
func (p *InstallmentPlan) MayResume() bool {
	return p.Status == PlanStatusOverdue && p.RemainingAmount.IsPositive()
}

// DaysLate returns whole days between the scheduled payment date and today
func (p *InstallmentPlan) DaysLate(today Date) int {
	return today.DaysSince(p.NextPaymentDate)
}

// InstallmentPayment is one payment applied to a plan
type InstallmentPayment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InstallmentID uint            `gorm:"not null;index" json:"installment_id"`
	PaymentDate   Date            `gorm:"type:varchar(10);not null" json:"payment_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"size:20;not null" json:"payment_method"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     uint            `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName specifies the table name for InstallmentPayment
func (InstallmentPayment) TableName() string {
	return "installment_payments"
}

// AfterFind normalizes amounts read back from drivers that store floats
func (p *InstallmentPayment) AfterFind(tx *gorm.DB) error {
	p.Amount = RoundMoney(p.Amount)
	return nil
}

// OverduePlan is a plan together with how late its scheduled payment is
type OverduePlan struct {
	InstallmentPlan
	DaysLate int `json:"days_late"`
}
