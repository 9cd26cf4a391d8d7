package cancel_booking

import (
	"context"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	"github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64, reason string) error
}

// SlotRepository интерфейс репозитория слотов доступности
type SlotRepository interface {
	Release(ctx context.Context, id int64, count int) error
}

// ProgramDirectoryClient интерфейс клиента каталога программ
type ProgramDirectoryClient interface {
	GetProgram(ctx context.Context, programID int64) (*programdirectory.Program, error)
}

// EventPublisher интерфейс публикации событий жизненного цикла бронирования
type EventPublisher interface {
	Publish(ctx context.Context, event notifier.Event, payload notifier.BookingEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
