package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type stubCacheRepo struct {
	getErr   error
	setErr   error
	delErr   error
	setTTL   time.Duration
	patterns []string
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return s.getErr
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.setTTL = ttl
	return s.setErr
}

func (s *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return s.delErr
}

func TestCacheServiceDisabledAlwaysMisses(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	hit, err := svc.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	require.NoError(t, svc.Invalidate(context.Background(), "k*"))
	assert.Empty(t, repo.patterns)

	var nilSvc *CacheService
	hit, err = nilSvc.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceHitMissAndMetrics(t *testing.T) {
	metrics := NewMetricsService()
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)

	hit, err := svc.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.True(t, hit)

	repo.getErr = appErrors.ErrCacheMiss
	hit, err = svc.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)

	repo.getErr = errors.New("redis down")
	hit, err = svc.Get(context.Background(), "k", &struct{}{})
	require.Error(t, err)
	assert.False(t, hit)

	assert.Equal(t, 1.0, counterValue(t, metrics, "cache_lookups_total", "hit"))
	assert.Equal(t, 2.0, counterValue(t, metrics, "cache_lookups_total", "miss"))
}

func counterValue(t *testing.T, metrics *MetricsService, name, labelValue string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCacheServiceSetUsesDefaultTTL(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, 3*time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Equal(t, 3*time.Minute, repo.setTTL)
	require.NoError(t, svc.Set(context.Background(), "k", 1, time.Second))
	assert.Equal(t, time.Second, repo.setTTL)

	repo.delErr = errors.New("scan failed")
	assert.Error(t, svc.Invalidate(context.Background(), "billing:stats:*"))
	assert.Equal(t, []string{"billing:stats:*"}, repo.patterns)
}
