package create_booking

import (
	"context"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	"github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	AddStudent(ctx context.Context, student *domain.BookingStudent) (*domain.BookingStudent, error)
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
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
