package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/billing"
	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

const billingCachePrefix = "billing:stats:"

type rosterReader interface {
	ListRoster(ctx context.Context) ([]models.Student, error)
}

type statusLogReader interface {
	ListUpTo(ctx context.Context, end time.Time) ([]models.StatusChangeEvent, error)
}

type pricingReader interface {
	ListAll(ctx context.Context) (map[string]models.PricingPolicy, error)
}

type academyLister interface {
	List(ctx context.Context) ([]models.Academy, error)
}

// BillingServiceConfig tunes caching of computed months.
type BillingServiceConfig struct {
	CacheTTL time.Duration
}

// BillingService loads roster, status log and pricing, then runs the reconciler.
type BillingService struct {
	reconciler *billing.Reconciler
	students   rosterReader
	logs       statusLogReader
	pricing    pricingReader
	academies  academyLister
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        BillingServiceConfig
	now        func() time.Time
}

// NewBillingService constructs the billing service. cache and metrics may be nil.
func NewBillingService(
	reconciler *billing.Reconciler,
	students rosterReader,
	logs statusLogReader,
	pricing pricingReader,
	academies academyLister,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg BillingServiceConfig,
) *BillingService {
	if reconciler == nil {
		reconciler = billing.NewReconciler(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		reconciler: reconciler,
		students:   students,
		logs:       logs,
		pricing:    pricing,
		academies:  academies,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// MonthlyStats returns the per-academy reports for a month. The boolean is
// true when the reports came from cache. Only closed months are cached; the
// roster is written by other services and the open month must see new students.
func (s *BillingService) MonthlyStats(ctx context.Context, year, month int) (map[string]models.MonthlyBillingReport, bool, error) {
	window, err := billing.NewWindow(year, month, s.reconciler.Location())
	if err != nil {
		return nil, false, err
	}

	if !window.End.Before(s.now()) {
		result, err := s.Compute(ctx, year, month)
		if err != nil {
			return nil, false, err
		}
		return result.Reports, false, nil
	}

	key := billingCachePrefix + window.Key()
	var cached map[string]models.MonthlyBillingReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	result, err := s.Compute(ctx, year, month)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, result.Reports, s.cfg.CacheTTL)
	return result.Reports, false, nil
}

// Compute always recomputes a month from the store.
func (s *BillingService) Compute(ctx context.Context, year, month int) (*billing.Result, error) {
	window, err := billing.NewWindow(year, month, s.reconciler.Location())
	if err != nil {
		return nil, err
	}

	loadStart := time.Now()
	students, err := s.students.ListRoster(ctx)
	if err != nil {
		return nil, s.inputUnavailable("student roster", err)
	}
	events, err := s.logs.ListUpTo(ctx, window.End)
	if err != nil {
		return nil, s.inputUnavailable("status log", err)
	}
	policies, err := s.pricing.ListAll(ctx)
	if err != nil {
		return nil, s.inputUnavailable("pricing policies", err)
	}
	academies, err := s.academies.List(ctx)
	if err != nil {
		return nil, s.inputUnavailable("academies", err)
	}
	s.metrics.ObserveDBQuery("billing_inputs", time.Since(loadStart))

	start := time.Now()
	result, err := s.reconciler.Compute(year, month, students, events, policies)
	if err != nil {
		s.metrics.ObserveReconcile(time.Since(start), nil, err)
		return nil, err
	}
	s.metrics.ObserveReconcile(time.Since(start), &result.Diagnostics, nil)

	names := make(map[string]string, len(academies))
	for _, academy := range academies {
		if academy.Name != "" {
			names[academy.ID] = academy.Name
		}
	}
	for tenantID, report := range result.Reports {
		if name, ok := names[tenantID]; ok {
			report.Name = name
			result.Reports[tenantID] = report
		}
	}

	s.logDiagnostics(window, result.Diagnostics)
	return result, nil
}

// InvalidateCache drops every cached month. Errors are logged by the cache service.
func (s *BillingService) InvalidateCache(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, billingCachePrefix+"*")
}

func (s *BillingService) inputUnavailable(what string, err error) error {
	s.logger.Error("billing input unavailable", zap.String("input", what), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInputUnavailable.Code, appErrors.ErrInputUnavailable.Status, fmt.Sprintf("failed to load %s", what))
}

func (s *BillingService) logDiagnostics(window billing.Window, diag billing.Diagnostics) {
	month := zap.String("month", window.Key())
	degraded := diag.DefaultedCreatedAt + diag.UnassignedStudents + diag.MalformedEvents + diag.OrphanEvents
	if degraded > 0 {
		s.logger.Warn("billing records degraded",
			month,
			zap.Int("defaulted_created_at", diag.DefaultedCreatedAt),
			zap.Int("unassigned_students", diag.UnassignedStudents),
			zap.Int("malformed_events", diag.MalformedEvents),
			zap.Int("orphan_events", diag.OrphanEvents),
		)
	}
	if len(diag.UnconfiguredTenants) > 0 {
		s.logger.Info("academies without pricing billed at zero", month, zap.Strings("academies", diag.UnconfiguredTenants))
	}
	s.logger.Debug("billing computed",
		month,
		zap.Int("students", diag.StudentsEvaluated),
		zap.Int("future_events", diag.FutureEvents),
	)
}
