package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  3,
		"username": "carla",
		"role":     role,
		"exp":      expires.Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newRouter(p models.Permission) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/guarded", Auth(testSecret), RequirePermission(p), func(c *gin.Context) {
		actor := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "name": actor.Name, "request_id": GetRequestID(c)})
	})
	return r
}

func TestAuth_AcceptsValidToken(t *testing.T) {
	r := newRouter(models.PermInvoices)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleSales, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"carla"`)
	assert.Contains(t, w.Body.String(), `"id":3`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuth_TokenFromQuery(t *testing.T) {
	r := newRouter(models.PermReports)

	req := httptest.NewRequest(http.MethodGet, "/guarded?token="+signToken(t, models.RoleAccountant, time.Now().Add(time.Hour)), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Rejects(t *testing.T) {
	r := newRouter(models.PermInvoices)

	cases := map[string]string{
		"missing":      "",
		"bad format":   "Token abc",
		"garbage":      "Bearer not-a-jwt",
		"expired":      "Bearer " + signToken(t, models.RoleAdmin, time.Now().Add(-time.Hour)),
		"unknown role": "Bearer " + signToken(t, "owner", time.Now().Add(time.Hour)),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequirePermission_ForbidsRoleWithoutIt(t *testing.T) {
	r := newRouter(models.PermBackup)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleAccountant, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":false`)
}

func TestRequestID_KeepsCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
