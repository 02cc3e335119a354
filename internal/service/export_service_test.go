package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/billing"
	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/pkg/storage"
)

type stubComputer struct {
	result *billing.Result
	err    error
}

func (s *stubComputer) Compute(ctx context.Context, year, month int) (*billing.Result, error) {
	return s.result, s.err
}

func sampleBillingResult(t *testing.T) *billing.Result {
	window, err := billing.NewWindow(2024, 2, seoul(t))
	require.NoError(t, err)
	return &billing.Result{
		Window: window,
		Reports: map[string]models.MonthlyBillingReport{
			"acad-2": {TenantID: "acad-2", Name: "Mapo", TotalStudents: 1, BillableStudents: 1, TotalCost: 500000, BillingType: models.BillingTypeFlatRate,
				Students: []models.StudentBillingLine{{ID: "s-3", Name: "Park", Username: "park", ActiveDays: 29, IsBillable: true, CurrentStatus: models.StudentStatusActive}}},
			"acad-1": {TenantID: "acad-1", Name: "Gangnam", TotalStudents: 2, BillableStudents: 1, TotalCost: 10000, BillingType: models.BillingTypePerStudent,
				Students: []models.StudentBillingLine{
					{ID: "s-2", Name: "Lee", Username: "lee", ActiveDays: 2, CurrentStatus: models.StudentStatusSuspended},
					{ID: "s-1", Name: "Kim", Username: "kim", ActiveDays: 29, IsBillable: true, CurrentStatus: models.StudentStatusActive},
				}},
		},
	}
}

func TestBillingDatasetOrdering(t *testing.T) {
	data := BillingDataset(sampleBillingResult(t))

	require.Len(t, data.Rows, 3)
	assert.Equal(t, []string{"acad-1", "Gangnam", "per_student", "10000", "s-1", "Kim", "kim", "active", "29", "true"}, data.Rows[0])
	assert.Equal(t, "Lee", data.Rows[1][5])
	assert.Equal(t, "Mapo", data.Rows[2][1])
	assert.Equal(t, "510000", data.Totals[3])
	assert.Equal(t, "2 billable", data.Totals[9])
	assert.Contains(t, data.Title, "2024-02")
	assert.Contains(t, data.Title, "Asia/Seoul")
}

func TestExportServiceGenerateStoresSignedFile(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(&stubComputer{result: sampleBillingResult(t)}, store, signer, ExportConfig{APIPrefix: "/api/v1/"}, zap.NewNop())

	job := &models.ExportJob{ID: "job-1", Params: models.ExportJobParams{Year: 2024, Month: 2, Format: models.ExportFormatCSV}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "billing/2024-02/job-1.csv", result.RelativePath)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/"))

	claims, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "job-1", claims.JobID)

	file, err := svc.Open(claims.Path)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "Academy ID,Academy,Billing Type"))
}

func TestExportServiceGenerateErrors(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)

	svc := NewExportService(&stubComputer{err: errors.New("db down")}, store, signer, ExportConfig{}, nil)
	_, err = svc.Generate(context.Background(), &models.ExportJob{ID: "job-1", Params: models.ExportJobParams{Year: 2024, Month: 2, Format: models.ExportFormatPDF}})
	assert.Error(t, err)

	_, err = svc.Generate(context.Background(), &models.ExportJob{ID: "job-1", Params: models.ExportJobParams{Year: 2024, Month: 2, Format: "docx"}})
	assert.Error(t, err)
}
