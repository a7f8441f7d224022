package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/services"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	Auth        *AuthHandler
	User        *UserHandler
	Car         *CarHandler
	Client      *ClientHandler
	Ledger      *LedgerHandler
	Installment *InstallmentHandler
	Invoice     *InvoiceHandler
	Report      *ReportHandler
	Audit       *AuditHandler
	Backup      *BackupHandler
	Job         *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, db Pinger) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(db),
		Auth:        NewAuthHandler(svcs.Auth),
		User:        NewUserHandler(svcs.User),
		Car:         NewCarHandler(svcs.Inventory),
		Client:      NewClientHandler(svcs.Inventory),
		Ledger:      NewLedgerHandler(svcs.Ledger),
		Installment: NewInstallmentHandler(svcs.Installment),
		Invoice:     NewInvoiceHandler(svcs.Invoice),
		Report:      NewReportHandler(svcs.Report, svcs.Export),
		Audit:       NewAuditHandler(svcs.Audit),
		Backup:      NewBackupHandler(svcs.Backup),
		Job:         NewJobHandler(svcs.Job),
	}
}

// respondError writes the operator-facing message of err with the status
// matching its kind. Nothing was changed unless retryable is true.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInactiveUser):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrStorage), errors.Is(err, services.ErrRender):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{
		"error":     services.UserMessage(err),
		"retryable": services.IsRetryable(err),
	})
}

// badRequest reports a body or parameter that could not be parsed
func badRequest(c *gin.Context, field string, err error) {
	respondError(c, &services.ValidationError{Field: field, Message: err.Error()})
}

// paramID parses a numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondError(c, &services.ValidationError{Field: name, Message: "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

// queryDate parses an optional YYYY-MM-DD query parameter
func queryDate(c *gin.Context, name string) (models.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return models.Date{}, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		badRequest(c, name, err)
		return models.Date{}, false
	}
	return d, true
}

// queryRange reads from/to. Both absent means no range; one without the
// other is rejected.
func queryRange(c *gin.Context) (*models.DateRange, bool) {
	from, ok := queryDate(c, "from")
	if !ok {
		return nil, false
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return nil, false
	}
	if from.IsZero() && to.IsZero() {
		return nil, true
	}
	r := &models.DateRange{Start: from, End: to}
	if err := r.Validate(); err != nil {
		badRequest(c, "range", err)
		return nil, false
	}
	return r, true
}

// requiredRange is queryRange for endpoints that need a window
func requiredRange(c *gin.Context) (models.DateRange, bool) {
	r, ok := queryRange(c)
	if !ok {
		return models.DateRange{}, false
	}
	if r == nil {
		badRequest(c, "range", errors.New("from and to are required"))
		return models.DateRange{}, false
	}
	return *r, true
}

// pagination reads page and per_page
func pagination(c *gin.Context, perPage int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(perPage)))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = perPage
	}
	return page, size
}

func paginationBody(page, perPage int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"per_page":    perPage,
		"total":       total,
		"total_pages": (total + int64(perPage) - 1) / int64(perPage),
	}
}
