package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/services"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param from query string false "From (YYYY-MM-DD)"
// @Param to query string false "To (YYYY-MM-DD)"
// @Param payment_method query string false "cash or installment"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) Index(c *gin.Context) {
	dateRange, ok := queryRange(c)
	if !ok {
		return
	}
	invoices, err := h.invoiceService.List(c.Request.Context(), repository.InvoiceFilter{
		Range:         dateRange,
		PaymentMethod: c.Query("payment_method"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "count": len(invoices)})
}

// @Summary Create an invoice
// @Description Allocates the next number of the month, records the sale and renders its document
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body services.CreateInvoiceInput true "Sale"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var in services.CreateInvoiceInput
	if err := BindNestedOrFlat(c, "invoice", &in); err != nil {
		badRequest(c, "body", err)
		return
	}

	result, err := h.invoiceService.CreateInvoice(c.Request.Context(), in, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"invoice": result.Invoice, "rendered": result.RenderError == nil}
	if result.RenderError != nil {
		body["render_error"] = services.UserMessage(result.RenderError)
		body["retryable"] = true
	}
	c.JSON(http.StatusCreated, body)
}

// @Summary Preview the next invoice number
// @Tags Invoices
// @Produce json
// @Param year query int false "Year, defaults to the current one"
// @Param month query int false "Month 1-12, defaults to the current one"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/next-number [get]
func (h *InvoiceHandler) NextNumber(c *gin.Context) {
	now := time.Now()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		badRequest(c, "year", err)
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		badRequest(c, "month", err)
		return
	}

	number, err := h.invoiceService.NextInvoiceNumber(c.Request.Context(), year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice_number": number})
}

func (h *InvoiceHandler) Summary(c *gin.Context) {
	dateRange, ok := queryRange(c)
	if !ok {
		return
	}
	summary, err := h.invoiceService.SalesSummary(c.Request.Context(), dateRange)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *InvoiceHandler) Show(c *gin.Context) {
	invoice, err := h.invoiceService.FindByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func (h *InvoiceHandler) Regenerate(c *gin.Context) {
	path, err := h.invoiceService.Regenerate(c.Request.Context(), c.Param("number"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file_path": path})
}

// RenderPending queues a render for every invoice still missing its document
func (h *InvoiceHandler) RenderPending(c *gin.Context) {
	queued, err := h.invoiceService.RenderPending(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}

// @Summary Download the invoice document
// @Tags Invoices
// @Produce application/pdf
// @Param number path string true "Invoice number"
// @Success 200 {file} file
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invoices/{number}/file [get]
func (h *InvoiceHandler) Download(c *gin.Context) {
	path, err := h.invoiceService.GetFile(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
