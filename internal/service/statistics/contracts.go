package statistics

import (
	"context"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
)

// StatsRepository интерфейс агрегирующего запроса по слотам
type StatsRepository interface {
	AggregateStats(ctx context.Context, programID int64, from, to time.Time) (*domain.SlotAggregates, error)
}

// Cache интерфейс read-side кэша агрегатов.
// Реализуется Redis-кэшем; nil означает, что кэширование выключено.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
