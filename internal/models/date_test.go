package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_AddMonths(t *testing.T) {
	tests := []struct {
		name string
		from Date
		n    int
		want string
	}{
		{"plain", NewDate(2024, time.January, 1), 1, "2024-02-01"},
		{"clamps to leap february", NewDate(2024, time.January, 31), 1, "2024-02-29"},
		{"clamps to short month", NewDate(2023, time.March, 31), 1, "2023-04-30"},
		{"crosses year", NewDate(2024, time.December, 15), 1, "2025-01-15"},
		{"several months", NewDate(2024, time.January, 31), 3, "2024-04-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.AddMonths(tt.n).String())
		})
	}
}

func TestDate_DaysSince(t *testing.T) {
	today := NewDate(2024, time.April, 15)
	assert.Equal(t, 45, today.DaysSince(NewDate(2024, time.March, 1)))
	assert.Equal(t, -1, NewDate(2024, time.March, 1).DaysSince(NewDate(2024, time.March, 2)))
}

func TestDate_ScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-03-05"))
	assert.Equal(t, "2024-03-05", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-06")))
	assert.Equal(t, "2024-03-06", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-07", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", v)

	assert.Error(t, d.Scan(42))
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29"}`), &payload))
	assert.Equal(t, NewDate(2024, time.February, 29), payload.Date)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-02-29"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"29/02/2024"}`), &payload))
}

func TestDateRange_Validate(t *testing.T) {
	assert.NoError(t, DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 1)}.Validate())
	assert.Error(t, DateRange{Start: NewDate(2024, 2, 1), End: NewDate(2024, 1, 1)}.Validate())
	assert.Error(t, DateRange{Start: NewDate(2024, 2, 1)}.Validate())
}

func TestRoleCan(t *testing.T) {
	assert.True(t, RoleCan(RoleAdmin, PermBackup))
	assert.False(t, RoleCan(RoleSales, PermBackup))
	assert.False(t, RoleCan(RoleSales, PermLogs))
	assert.True(t, RoleCan(RoleAccountant, PermLogs))
	assert.False(t, RoleCan(RoleAccountant, PermInvoices))
	assert.False(t, RoleCan("guest", PermReports))
}
