package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/database"
	"github.com/sjperalta/dealer-ledger/internal/jobs"
	"github.com/sjperalta/dealer-ledger/internal/render"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/services"
	"github.com/sjperalta/dealer-ledger/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	handle, err := database.Open(database.Options{
		Driver:      "sqlite",
		Path:        filepath.Join(dir, "ledger.db"),
		Environment: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	trail, err := audit.NewTrail(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	files, err := storage.NewLocalStorage(filepath.Join(dir, "invoices"))
	require.NoError(t, err)

	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	cfg := &config.Config{
		CompanyName:        "Test Motors",
		JWTSecret:          testSecret,
		JWTExpirationHours: 1,
		SeedPassword:       "changeme",
		ReportCacheTTL:     time.Minute,
		BackupDir:          filepath.Join(dir, "backups"),
	}

	svcs := services.NewServices(handle, repository.NewRepositories(handle), trail, worker,
		render.NewPDFRenderer(files), files, cfg)
	_, err = svcs.Auth.SeedDefaultUsers(context.Background())
	require.NoError(t, err)

	router := gin.New()
	NewHandlers(svcs, handle).Register(router.Group("/api/v1"), testSecret)
	return &apiClient{t: t, router: router}
}

func (a *apiClient) login(username string) *apiClient {
	w := a.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": username, "password": "changeme"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var res services.LoginResult
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &res))
	a.token = res.Token
	return a
}

func (a *apiClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) (string, bool) {
	t.Helper()
	var body struct {
		Error     string `json:"error"`
		Retryable bool   `json:"retryable"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error, body.Retryable
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	w := api.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	api := newAPI(t)
	w := api.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	api := newAPI(t)
	w := api.do(http.MethodGet, "/api/v1/ledger", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLedgerLifecycle(t *testing.T) {
	api := newAPI(t).login("admin")

	w := api.do(http.MethodPost, "/api/v1/ledger", map[string]interface{}{
		"entry": map[string]interface{}{
			"entry_type": "income", "category": "Commissions", "amount": "120.50", "date": "2024-03-01",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	w = api.do(http.MethodPost, "/api/v1/ledger", map[string]interface{}{
		"entry_type": "expense", "category": "Rent", "amount": 20, "date": "2024-03-02",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/ledger/summary?from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary struct {
		Net decimal.Decimal `json:"net"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "100.50", summary.Net.StringFixed(2))

	w = api.do(http.MethodGet, "/api/v1/ledger/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories struct {
		Categories map[string][]string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categories))
	assert.Contains(t, categories.Categories["income"], "Vehicle sales")
	assert.Contains(t, categories.Categories["expense"], "Rent")

	path := "/api/v1/ledger/" + strconv.FormatUint(uint64(created.ID), 10)
	w = api.do(http.MethodPut, path, map[string]interface{}{
		"entry_type": "income", "category": "Commissions", "amount": "130", "date": "2024-03-01",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, "deleting again is a no-op")

	w = api.do(http.MethodPut, path, map[string]interface{}{
		"entry_type": "income", "category": "Commissions", "amount": "130", "date": "2024-03-01",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/v1/ledger", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestLedger_ValidationErrors(t *testing.T) {
	api := newAPI(t).login("accountant")

	w := api.do(http.MethodPost, "/api/v1/ledger", map[string]interface{}{
		"entry_type": "income", "category": "Rent", "amount": "-5", "date": "2024-03-02",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	msg, retryable := errorBody(t, w)
	assert.Contains(t, msg, "amount")
	assert.False(t, retryable)

	w = api.do(http.MethodPost, "/api/v1/ledger", map[string]interface{}{
		"entry_type": "income", "category": "Rent", "amount": "5", "date": "02/03/2024",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(http.MethodGet, "/api/v1/ledger?from=2024-03-31&to=2024-03-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(http.MethodGet, "/api/v1/ledger?from=2024-03-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "one bound without the other")

	w = api.do(http.MethodPut, "/api/v1/ledger/abc", map[string]interface{}{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPermissions(t *testing.T) {
	api := newAPI(t).login("accountant")

	w := api.do(http.MethodGet, "/api/v1/backups", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodGet, "/api/v1/invoices", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodGet, "/api/v1/audit", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	sales := newAPI(t).login("sales")
	w = sales.do(http.MethodGet, "/api/v1/audit", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = sales.do(http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInstallmentsAndInvoices(t *testing.T) {
	api := newAPI(t).login("admin")

	w := api.do(http.MethodPost, "/api/v1/cars", map[string]interface{}{
		"brand": "Toyota", "model": "Corolla", "year": 2022, "chassis": "jtd123", "price": "120000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = api.do(http.MethodPost, "/api/v1/clients", map[string]interface{}{
		"client": map[string]interface{}{"name": "María Pérez", "phone": "555-0101"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/cars", map[string]interface{}{
		"brand": "Toyota", "model": "Yaris", "chassis": "JTD123", "price": "1",
	})
	assert.Equal(t, http.StatusConflict, w.Code, "chassis is unique")

	w = api.do(http.MethodPost, "/api/v1/installments", map[string]interface{}{
		"car_id": 1, "client_id": 1, "total_amount": "120000", "down_payment": "20000",
		"installment_count": 10, "start_date": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/installments/1/payments", map[string]interface{}{
		"amount": "500000", "payment_date": "2024-02-05",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "overpayment")

	w = api.do(http.MethodPost, "/api/v1/installments/1/payments", map[string]interface{}{
		"amount": "10000", "payment_date": "2024-02-05",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/installments/overdue?today=2024-04-15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = api.do(http.MethodGet, "/api/v1/installments/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/invoices", map[string]interface{}{
		"car_id": 1, "client_id": 1, "amount": "95000", "payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "true", string(body["rendered"]))

	var invoice struct {
		InvoiceNumber string `json:"invoice_number"`
	}
	require.NoError(t, json.Unmarshal(body["invoice"], &invoice))
	require.NotEmpty(t, invoice.InvoiceNumber)

	w = api.do(http.MethodGet, "/api/v1/invoices/"+invoice.InvoiceNumber+"/file", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = api.do(http.MethodGet, "/api/v1/invoices/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sales struct {
		Summary []struct {
			PaymentMethod string          `json:"payment_method"`
			Count         int64           `json:"count"`
			Total         decimal.Decimal `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sales))
	require.Len(t, sales.Summary, 1)
	assert.Equal(t, "cash", sales.Summary[0].PaymentMethod)
	assert.Equal(t, int64(1), sales.Summary[0].Count)
	assert.Equal(t, "95000.00", sales.Summary[0].Total.StringFixed(2))

	w = api.do(http.MethodGet, "/api/v1/invoices?payment_method=cash", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"count":1`)
	w = api.do(http.MethodGet, "/api/v1/invoices?payment_method=Installment", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"count":0`)
	w = api.do(http.MethodGet, "/api/v1/invoices?payment_method=barter", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(http.MethodGet, "/api/v1/invoices/INV-202401-9999/file", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/v1/invoices/next-number?year=2024&month=13", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReports(t *testing.T) {
	api := newAPI(t).login("admin")
	api.do(http.MethodPost, "/api/v1/ledger", map[string]interface{}{
		"entry_type": "income", "category": "Commissions", "amount": "150", "date": "2024-03-10",
	})

	w := api.do(http.MethodGet, "/api/v1/reports/financial?from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"kind":"financial"`)

	w = api.do(http.MethodGet, "/api/v1/reports/financial?from=2024-03-01&to=2024-03-31&format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "financial_report_")

	w = api.do(http.MethodGet, "/api/v1/reports/financial", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "range is required")

	w = api.do(http.MethodGet, "/api/v1/reports/weather?from=2024-03-01&to=2024-03-31", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(http.MethodGet, "/api/v1/reports/financial?from=2024-03-01&to=2024-03-31&format=xml", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBackupsAndAudit(t *testing.T) {
	api := newAPI(t).login("admin")

	w := api.do(http.MethodPost, "/api/v1/backups", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		BackupID string `json:"backup_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = api.do(http.MethodGet, "/api/v1/backups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.BackupID)

	w = api.do(http.MethodPost, "/api/v1/backups/19990101_000000/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/backups/"+created.BackupID+"/restore", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/audit?event=backup_restore&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"event_type":"backup_restore"`)

	w = api.do(http.MethodGet, "/api/v1/audit/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "audit_log_")

	w = api.do(http.MethodGet, "/api/v1/audit?limit=-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(http.MethodGet, "/api/v1/jobs/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decode(t, w)
	assert.Contains(t, string(jobs["worker"]), `"workers"`)
	assert.Contains(t, string(jobs["status_refresh"]), `"interval"`)
}

func TestUsers(t *testing.T) {
	api := newAPI(t).login("admin")

	w := api.do(http.MethodPost, "/api/v1/users", map[string]interface{}{
		"username": "carla", "password": "secret123", "FullName": "Carla Ruiz", "role": "sales",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"full_name":"Carla Ruiz"`)

	w = api.do(http.MethodPost, "/api/v1/users", map[string]interface{}{
		"username": "carla", "password": "secret123", "role": "sales",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":4`)

	w = api.do(http.MethodPatch, "/api/v1/users/4/status", map[string]interface{}{"active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"inactive"`)

	w = api.do(http.MethodPatch, "/api/v1/users/1/status", map[string]interface{}{"active": false})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "cannot disable yourself")

	w = api.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "carla", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
