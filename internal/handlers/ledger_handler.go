package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/internal/services"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
}

func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// @Summary List ledger entries
// @Description Newest first, or oldest first when from/to are given
// @Tags Ledger
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger [get]
func (h *LedgerHandler) Index(c *gin.Context) {
	dateRange, ok := queryRange(c)
	if !ok {
		return
	}

	entries, err := h.ledgerService.List(c.Request.Context(), dateRange)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// @Summary Record a ledger entry
// @Tags Ledger
// @Accept json
// @Produce json
// @Param request body services.LedgerInput true "Entry"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger [post]
func (h *LedgerHandler) Create(c *gin.Context) {
	var in services.LedgerInput
	if err := BindNestedOrFlat(c, "entry", &in); err != nil {
		badRequest(c, "body", err)
		return
	}

	id, err := h.ledgerService.Record(c.Request.Context(), in, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.ledgerService.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "entry": entry})
}

// @Summary Update a ledger entry
// @Tags Ledger
// @Accept json
// @Produce json
// @Param entry_id path int true "Entry ID"
// @Param request body services.LedgerInput true "Entry"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /ledger/{entry_id} [put]
func (h *LedgerHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "entry_id")
	if !ok {
		return
	}

	var in services.LedgerInput
	if err := BindNestedOrFlat(c, "entry", &in); err != nil {
		badRequest(c, "body", err)
		return
	}

	if err := h.ledgerService.Update(c.Request.Context(), id, in, middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.ledgerService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// Delete answers 204 whether or not the entry existed
func (h *LedgerHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "entry_id")
	if !ok {
		return
	}
	if err := h.ledgerService.Delete(c.Request.Context(), id, middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LedgerHandler) Summary(c *gin.Context) {
	dateRange, ok := queryRange(c)
	if !ok {
		return
	}

	summary, err := h.ledgerService.Summary(c.Request.Context(), dateRange)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"income":  summary.Income,
		"expense": summary.Expense,
		"net":     summary.Net(),
	})
}

func (h *LedgerHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.ledgerService.Categories()})
}
