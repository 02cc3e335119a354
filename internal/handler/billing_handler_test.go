package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type billingStatsMock struct {
	reports     map[string]models.MonthlyBillingReport
	cached      bool
	err         error
	year, month int
}

func (m *billingStatsMock) MonthlyStats(ctx context.Context, year, month int) (map[string]models.MonthlyBillingReport, bool, error) {
	m.year, m.month = year, month
	return m.reports, m.cached, m.err
}

func TestBillingHandlerStatsReturnsBareMap(t *testing.T) {
	mock := &billingStatsMock{
		reports: map[string]models.MonthlyBillingReport{
			"acad-1": {
				TenantID:         "acad-1",
				Name:             "Gangnam Branch",
				TotalStudents:    2,
				BillableStudents: 1,
				TotalCost:        10000,
				BillingType:      models.BillingTypePerStudent,
				Students: []models.StudentBillingLine{
					{ID: "s1", Name: "Kim", Username: "kim", ActiveDays: 31, IsBillable: true, CurrentStatus: models.StudentStatusActive},
					{ID: "s2", Name: "Lee", Username: "lee", ActiveDays: 3, IsBillable: false, CurrentStatus: models.StudentStatusSuspended},
				},
			},
		},
		cached: true,
	}
	h := NewBillingHandler(mock)

	c, w := newGinContext(http.MethodGet, "/admin/billing-stats?year=2024&month=3", nil)
	h.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2024, mock.year)
	assert.Equal(t, 3, mock.month)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	report, ok := body["acad-1"]
	require.True(t, ok, "body must be keyed by tenant id, not wrapped")
	assert.Equal(t, "Gangnam Branch", report["name"])
	assert.EqualValues(t, 2, report["totalStudents"])
	assert.EqualValues(t, 1, report["billableStudents"])
	assert.EqualValues(t, 10000, report["totalCost"])
	assert.Equal(t, "per_student", report["billingType"])
	students := report["students"].([]interface{})
	require.Len(t, students, 2)
	first := students[0].(map[string]interface{})
	assert.Equal(t, true, first["isBillable"])
	assert.EqualValues(t, 31, first["activeDays"])
	assert.Equal(t, "active", first["currentStatus"])
}

func TestBillingHandlerStatsRejectsBadQuery(t *testing.T) {
	cases := map[string]string{
		"missing year":  "/admin/billing-stats?month=3",
		"missing month": "/admin/billing-stats?year=2024",
		"non numeric":   "/admin/billing-stats?year=abcd&month=3",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			mock := &billingStatsMock{}
			c, w := newGinContext(http.MethodGet, path, nil)
			NewBillingHandler(mock).Stats(c)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body, 1)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBillingHandlerStatsPropagatesServiceStatus(t *testing.T) {
	mock := &billingStatsMock{err: appErrors.Clone(appErrors.ErrInputUnavailable, "billing inputs unavailable: students")}
	c, w := newGinContext(http.MethodGet, "/admin/billing-stats?year=2024&month=3", nil)
	NewBillingHandler(mock).Stats(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"billing inputs unavailable: students"}`, w.Body.String())
}

func TestBillingHandlerStatsMissHeader(t *testing.T) {
	mock := &billingStatsMock{reports: map[string]models.MonthlyBillingReport{}}
	c, w := newGinContext(http.MethodGet, "/admin/billing-stats?year=2024&month=2", nil)
	NewBillingHandler(mock).Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{}`, w.Body.String())
}
