package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/services"
)

type InstallmentHandler struct {
	installmentService *services.InstallmentService
}

func NewInstallmentHandler(installmentService *services.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{installmentService: installmentService}
}

// @Summary List installment plans
// @Description Overdue plans first, then ongoing, then completed
// @Tags Installments
// @Produce json
// @Param status query string false "ongoing, overdue or completed"
// @Param from query string false "Next payment from (YYYY-MM-DD)"
// @Param to query string false "Next payment to (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments [get]
func (h *InstallmentHandler) Index(c *gin.Context) {
	dateRange, ok := queryRange(c)
	if !ok {
		return
	}

	plans, err := h.installmentService.ListPlans(c.Request.Context(), repository.PlanFilter{
		Status: c.Query("status"),
		Range:  dateRange,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

// @Summary Create an installment plan
// @Description Opens a plan and books its down payment
// @Tags Installments
// @Accept json
// @Produce json
// @Param request body services.CreatePlanInput true "Plan"
// @Success 201 {object} models.InstallmentPlan
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments [post]
func (h *InstallmentHandler) Create(c *gin.Context) {
	var in services.CreatePlanInput
	if err := BindNestedOrFlat(c, "plan", &in); err != nil {
		badRequest(c, "body", err)
		return
	}

	id, err := h.installmentService.CreatePlan(c.Request.Context(), in, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	plan, err := h.installmentService.GetPlan(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "plan": plan})
}

// @Summary Get an installment plan
// @Tags Installments
// @Produce json
// @Param plan_id path int true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments/{plan_id} [get]
func (h *InstallmentHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "plan_id")
	if !ok {
		return
	}
	plan, err := h.installmentService.GetPlan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// @Summary List payments of a plan
// @Description Oldest first
// @Tags Installments
// @Produce json
// @Param plan_id path int true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments/{plan_id}/payments [get]
func (h *InstallmentHandler) Payments(c *gin.Context) {
	id, ok := paramID(c, "plan_id")
	if !ok {
		return
	}
	payments, err := h.installmentService.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// @Summary Record a payment
// @Description Applies a payment to a plan and books it to the ledger
// @Tags Installments
// @Accept json
// @Produce json
// @Param plan_id path int true "Plan ID"
// @Param request body services.PaymentInput true "Payment"
// @Success 201 {object} models.InstallmentPlan
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments/{plan_id}/payments [post]
func (h *InstallmentHandler) RecordPayment(c *gin.Context) {
	id, ok := paramID(c, "plan_id")
	if !ok {
		return
	}

	var in services.PaymentInput
	if err := BindNestedOrFlat(c, "payment", &in); err != nil {
		badRequest(c, "body", err)
		return
	}

	plan, err := h.installmentService.RecordPayment(c.Request.Context(), id, in, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// @Summary Delete an installment plan
// @Description Removes the plan and its payments. Ledger entries already booked are kept.
// @Tags Installments
// @Param plan_id path int true "Plan ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments/{plan_id} [delete]
func (h *InstallmentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "plan_id")
	if !ok {
		return
	}
	if err := h.installmentService.DeletePlan(c.Request.Context(), id, middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Overdue plans
// @Description Plans past their scheduled payment as of today, most days late first
// @Tags Installments
// @Produce json
// @Param today query string false "Evaluate as of this day (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments/overdue [get]
func (h *InstallmentHandler) Overdue(c *gin.Context) {
	today, ok := queryDate(c, "today")
	if !ok {
		return
	}
	plans, err := h.installmentService.ListOverdue(c.Request.Context(), today)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

// @Summary Refresh plan statuses
// @Description Re-evaluates every active plan as of today and reports how many changed
// @Tags Installments
// @Produce json
// @Param today query string false "Evaluate as of this day (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments/refresh [post]
func (h *InstallmentHandler) Refresh(c *gin.Context) {
	today, ok := queryDate(c, "today")
	if !ok {
		return
	}
	changed, err := h.installmentService.RefreshStatuses(c.Request.Context(), today, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}
