package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/services"
)

type CarHandler struct {
	inventoryService *services.InventoryService
}

func NewCarHandler(inventoryService *services.InventoryService) *CarHandler {
	return &CarHandler{inventoryService: inventoryService}
}

// @Summary List Cars
// @Description Get a paginated list of cars in inventory
// @Tags Cars
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by brand, model or chassis"
// @Param status query string false "available or sold"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cars [get]
func (h *CarHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, query.PerPage = pagination(c, 20)
	query.Search = c.Query("search_term")
	query.Filters["status"] = c.Query("status")

	cars, total, err := h.inventoryService.ListCars(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cars": cars, "pagination": paginationBody(query.Page, query.PerPage, total)})
}

func (h *CarHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "car_id")
	if !ok {
		return
	}
	car, err := h.inventoryService.FindCar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": car})
}

// @Summary Create Car
// @Tags Cars
// @Accept json
// @Produce json
// @Param request body models.Car true "Car Data"
// @Success 201 {object} models.Car
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cars [post]
func (h *CarHandler) Create(c *gin.Context) {
	var car models.Car
	if err := BindNestedOrFlat(c, "car", &car); err != nil {
		badRequest(c, "body", err)
		return
	}
	if err := h.inventoryService.CreateCar(c.Request.Context(), &car, middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"car": car})
}

type ClientHandler struct {
	inventoryService *services.InventoryService
}

func NewClientHandler(inventoryService *services.InventoryService) *ClientHandler {
	return &ClientHandler{inventoryService: inventoryService}
}

func (h *ClientHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, query.PerPage = pagination(c, 20)
	query.Search = c.Query("search_term")
	query.Filters["status"] = c.Query("status")

	clients, total, err := h.inventoryService.ListClients(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients, "pagination": paginationBody(query.Page, query.PerPage, total)})
}

func (h *ClientHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "client_id")
	if !ok {
		return
	}
	client, err := h.inventoryService.FindClient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

func (h *ClientHandler) Create(c *gin.Context) {
	var client models.Client
	if err := BindNestedOrFlat(c, "client", &client); err != nil {
		badRequest(c, "body", err)
		return
	}
	if err := h.inventoryService.CreateClient(c.Request.Context(), &client, middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": client})
}

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

// @Summary Build a report
// @Description Financial, installments, sales or clients report for a date range, as JSON or a CSV, XLSX or PDF download
// @Tags Reports
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param kind path string true "financial, installments, sales or clients"
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Param format query string false "json (default), csv, xlsx or pdf"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reports/{kind} [get]
func (h *ReportHandler) Show(c *gin.Context) {
	dateRange, ok := requiredRange(c)
	if !ok {
		return
	}
	kind := c.Param("kind")
	format := c.DefaultQuery("format", services.FormatJSON)

	report, err := h.reportService.Build(c.Request.Context(), kind, dateRange)
	if err != nil {
		respondError(c, err)
		return
	}

	if format == services.FormatJSON {
		c.JSON(http.StatusOK, gin.H{"kind": kind, "report": report})
		return
	}

	data, filename, err := h.exportService.Export(report, kind, format)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, services.ContentTypes[format], data)
}

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// auditFilter reads event, actor_id, from, to, failed and limit
func auditFilter(c *gin.Context) (audit.Filter, bool) {
	filter := audit.Filter{
		EventType:  c.Query("event"),
		FailedOnly: c.Query("failed") == "true" || c.Query("failed") == "1",
	}

	if raw := c.Query("actor_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			badRequest(c, "actor_id", err)
			return filter, false
		}
		actorID := uint(id)
		filter.ActorID = &actorID
	}

	from, ok := queryDate(c, "from")
	if !ok {
		return filter, false
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return filter, false
	}
	if !from.IsZero() {
		filter.From = localDay(from)
	}
	if !to.IsZero() {
		filter.To = localDay(to).Add(24*time.Hour - time.Nanosecond)
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(c, &services.ValidationError{Field: "limit", Message: "must be a non-negative integer"})
			return filter, false
		}
		filter.Limit = limit
	}
	return filter, true
}

// localDay is midnight of d in the zone the audit trail is written in
func localDay(d models.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}

// @Summary List Audit Events
// @Description Newest first
// @Tags Audit
// @Produce json
// @Param event query string false "Event type"
// @Param actor_id query int false "Actor user ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param failed query bool false "Only failures"
// @Param limit query int false "Maximum events"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) Index(c *gin.Context) {
	filter, ok := auditFilter(c)
	if !ok {
		return
	}
	events, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (h *AuditHandler) Export(c *gin.Context) {
	filter, ok := auditFilter(c)
	if !ok {
		return
	}
	data, filename, err := h.auditService.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, services.ContentTypes[services.FormatCSV], data)
}
