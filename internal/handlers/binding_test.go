package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		key          string
		body         string
		wantCategory string
		wantAmount   string
		wantDate     string
		expectError  bool
	}{
		{
			name:         "Nested entry",
			key:          "entry",
			body:         `{"entry": {"entry_type": "income", "category": "Commissions", "amount": "120.50", "date": "2024-03-01"}}`,
			wantCategory: "Commissions",
			wantAmount:   "120.50",
			wantDate:     "2024-03-01",
		},
		{
			name:         "Flat entry with numeric amount",
			key:          "entry",
			body:         `{"entry_type": "expense", "category": "Rent", "amount": 800, "date": "2024-03-02"}`,
			wantCategory: "Rent",
			wantAmount:   "800.00",
			wantDate:     "2024-03-02",
		},
		{
			name:         "Other keys fall back to flat",
			key:          "entry",
			body:         `{"meta": "x", "category": "Salaries", "amount": "1", "date": "2024-01-31"}`,
			wantCategory: "Salaries",
			wantAmount:   "1.00",
			wantDate:     "2024-01-31",
		},
		{
			name:        "Malformed date",
			key:         "entry",
			body:        `{"category": "Rent", "amount": "1", "date": "31/01/2024"}`,
			expectError: true,
		},
		{
			name:        "Nested key with wrong type",
			key:         "entry",
			body:        `{"entry": "income"}`,
			expectError: true,
		},
		{
			name:        "Not JSON",
			key:         "entry",
			body:        `amount=5`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/api/v1/ledger", bytes.NewBufferString(tt.body))

			var in services.LedgerInput
			err := BindNestedOrFlat(c, tt.key, &in)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCategory, in.Category)
			assert.Equal(t, tt.wantAmount, in.Amount.StringFixed(2))
			assert.Equal(t, tt.wantDate, in.Date.String())
		})
	}
}
