package statistics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/service/statistics/models"
)

// Service read-only сервис агрегированной статистики по слотам программы.
// Ничего не мутирует; единственный инвариант - корректность агрегации.
type Service struct {
	statsRepo StatsRepository
	cache     Cache // nil = кэширование выключено
	logger    Logger
}

// NewService создает новый экземпляр сервиса статистики
func NewService(statsRepo StatsRepository, cache Cache, logger Logger) *Service {
	return &Service{
		statsRepo: statsRepo,
		cache:     cache,
		logger:    logger,
	}
}

// GetProgramStatistics возвращает метрики утилизации слотов программы за период.
// Результат кэшируется в Redis с коротким TTL; кэш - оптимизация,
// при недоступности Redis метрики считаются заново из БД.
func (s *Service) GetProgramStatistics(
	ctx context.Context,
	req *models.GetProgramStatisticsRequest,
) (*models.ProgramStatisticsResponse, error) {
	s.logger.Info("GetProgramStatistics: program=%d, period=%s to %s",
		req.ProgramID, req.FromDate.Format(domain.DateFormat), req.ToDate.Format(domain.DateFormat))

	if err := validateRequest(req); err != nil {
		s.logger.Warn("GetProgramStatistics: validation failed: %v", err)
		return nil, err
	}

	cacheKey := fmt.Sprintf("stats:program:%d:%s:%s",
		req.ProgramID, req.FromDate.Format(domain.DateFormat), req.ToDate.Format(domain.DateFormat))

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKey); ok {
			var response models.ProgramStatisticsResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				s.logger.Info("GetProgramStatistics: cache hit for program=%d", req.ProgramID)
				return &response, nil
			}
			// Битое значение в кэше - пересчитываем из БД
			s.logger.Warn("GetProgramStatistics: failed to decode cached value for program=%d", req.ProgramID)
		}
	}

	agg, err := s.statsRepo.AggregateStats(ctx, req.ProgramID, req.FromDate, req.ToDate)
	if err != nil {
		s.logger.Error("GetProgramStatistics: repository error for program=%d: %v", req.ProgramID, err)
		return nil, fmt.Errorf("%w: GetProgramStatistics - repository error: %v", ErrInternal, err)
	}

	stats := domain.NewProgramStatistics(req.ProgramID, req.FromDate, req.ToDate, *agg)
	response := models.FromDomainStatistics(stats)

	if s.cache != nil {
		if encoded, err := json.Marshal(response); err == nil {
			s.cache.Set(ctx, cacheKey, string(encoded))
		}
	}

	s.logger.Info("GetProgramStatistics: program=%d, slots=%d, utilization=%.2f",
		req.ProgramID, stats.TotalSlots, stats.UtilizationRate)
	return response, nil
}

// validateRequest валидирует запрос статистики
func validateRequest(req *models.GetProgramStatisticsRequest) error {
	if req.ProgramID <= 0 {
		return fmt.Errorf("%w: programID must be positive", ErrInvalidInput)
	}
	if req.FromDate.IsZero() || req.ToDate.IsZero() {
		return fmt.Errorf("%w: fromDate and toDate are required", ErrInvalidInput)
	}
	if req.ToDate.Before(req.FromDate) {
		return fmt.Errorf("%w: toDate must not be before fromDate", ErrInvalidInput)
	}
	return nil
}
