package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/service/statistics/models"
)

type fakeStatsRepo struct {
	agg   domain.SlotAggregates
	calls int
}

func (r *fakeStatsRepo) AggregateStats(_ context.Context, _ int64, _, _ time.Time) (*domain.SlotAggregates, error) {
	r.calls++
	agg := r.agg
	return &agg, nil
}

type fakeCache struct {
	values map[string]string
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool) {
	value, ok := c.values[key]
	return value, ok
}

func (c *fakeCache) Set(_ context.Context, key, value string) {
	c.values[key] = value
	c.sets++
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func statsRequest() *models.GetProgramStatisticsRequest {
	return &models.GetProgramStatisticsRequest{
		ProgramID: 1,
		FromDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ToDate:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func sampleAggregates() domain.SlotAggregates {
	return domain.SlotAggregates{
		TotalSlots:       10,
		AvailableSlots:   8,
		FullyBookedSlots: 2,
		TotalBookings:    6,
		TotalCapacity:    20,
	}
}

func TestGetProgramStatistics_WithoutCache(t *testing.T) {
	repo := &fakeStatsRepo{agg: sampleAggregates()}
	svc := NewService(repo, nil, noopLogger{})

	resp, err := svc.GetProgramStatistics(context.Background(), statsRequest())
	require.NoError(t, err)

	assert.Equal(t, 10, resp.TotalSlots)
	assert.InDelta(t, 0.3, resp.UtilizationRate, 0.001)
	assert.InDelta(t, 0.8, resp.AvailabilityRate, 0.001)
	assert.Equal(t, "2025-06-01", resp.FromDate)
	assert.Equal(t, 1, repo.calls)
}

func TestGetProgramStatistics_CacheMissThenHit(t *testing.T) {
	repo := &fakeStatsRepo{agg: sampleAggregates()}
	cache := newFakeCache()
	svc := NewService(repo, cache, noopLogger{})
	ctx := context.Background()

	// Первый запрос считает из БД и пишет в кэш
	first, err := svc.GetProgramStatistics(ctx, statsRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)

	// Второй запрос отдается из кэша без обращения к БД
	second, err := svc.GetProgramStatistics(ctx, statsRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first, second)
}

func TestGetProgramStatistics_CorruptCacheFallsBackToDB(t *testing.T) {
	repo := &fakeStatsRepo{agg: sampleAggregates()}
	cache := newFakeCache()
	cache.values["stats:program:1:2025-06-01:2025-06-30"] = "{not json"
	svc := NewService(repo, cache, noopLogger{})

	resp, err := svc.GetProgramStatistics(context.Background(), statsRequest())
	require.NoError(t, err)
	assert.Equal(t, 10, resp.TotalSlots)
	assert.Equal(t, 1, repo.calls)
}

func TestGetProgramStatistics_Validation(t *testing.T) {
	svc := NewService(&fakeStatsRepo{}, nil, noopLogger{})
	ctx := context.Background()

	req := statsRequest()
	req.ProgramID = 0
	_, err := svc.GetProgramStatistics(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = statsRequest()
	req.ToDate = req.FromDate.AddDate(0, 0, -1)
	_, err = svc.GetProgramStatistics(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = statsRequest()
	req.FromDate = time.Time{}
	_, err = svc.GetProgramStatistics(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
