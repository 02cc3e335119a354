package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/billing"
	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/pkg/export"
	"github.com/noah-isme/academy-billing-api/pkg/storage"
)

type billingComputer interface {
	Compute(ctx context.Context, year, month int) (*billing.Result, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders billing months to files and signs download links.
type ExportService struct {
	billing billingComputer
	storage fileStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(computer billingComputer, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{billing: computer, storage: store, signer: signer, logger: logger, cfg: cfg}
}

// Generate computes the job's month, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, err := export.ForFormat(string(job.Params.Format))
	if err != nil {
		return nil, err
	}
	result, err := s.billing.Compute(ctx, job.Params.Year, job.Params.Month)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(BillingDataset(result))
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("billing/%s/%s.%s", result.Window.Key(), job.ID, renderer.Extension())
	relPath, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("billing export generated",
		zap.String("job_id", job.ID),
		zap.String("month", result.Window.Key()),
		zap.String("format", string(job.Params.Format)),
		zap.Int("bytes", len(payload)),
	)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", s.cfg.APIPrefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// VerifyToken validates a download token.
func (s *ExportService) VerifyToken(token string) (*storage.DownloadClaims, error) {
	return s.signer.Verify(token)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

var billingExportHeaders = []string{
	"Academy ID", "Academy", "Billing Type", "Academy Total Cost",
	"Student ID", "Student", "Username", "Current Status", "Active Days", "Billable",
}

// BillingDataset flattens a computed month into one row per student, ordered
// by academy name then student name, with a grand totals row.
func BillingDataset(result *billing.Result) export.Dataset {
	tenantIDs := make([]string, 0, len(result.Reports))
	for id := range result.Reports {
		tenantIDs = append(tenantIDs, id)
	}
	sort.Slice(tenantIDs, func(i, j int) bool {
		a, b := result.Reports[tenantIDs[i]], result.Reports[tenantIDs[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return tenantIDs[i] < tenantIDs[j]
	})

	rows := make([][]string, 0)
	var students, billable int
	var totalCost float64
	for _, id := range tenantIDs {
		report := result.Reports[id]
		lines := append([]models.StudentBillingLine(nil), report.Students...)
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
		cost := formatAmount(report.TotalCost)
		for _, line := range lines {
			rows = append(rows, []string{
				id, report.Name, string(report.BillingType), cost,
				line.ID, line.Name, line.Username, string(line.CurrentStatus),
				strconv.Itoa(line.ActiveDays), strconv.FormatBool(line.IsBillable),
			})
		}
		students += report.TotalStudents
		billable += report.BillableStudents
		totalCost += report.TotalCost
	}

	return export.Dataset{
		Title:   fmt.Sprintf("Academy billing %s (%s)", result.Window.Key(), result.Window.Location),
		Headers: billingExportHeaders,
		Rows:    rows,
		Totals: []string{
			"TOTAL", fmt.Sprintf("%d academies", len(tenantIDs)), "", formatAmount(totalCost),
			"", fmt.Sprintf("%d students", students), "", "", "", fmt.Sprintf("%d billable", billable),
		},
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
