package bookings

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
	GetBySchoolUserID(ctx context.Context, schoolUserID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	GetByProgramWithFilter(ctx context.Context, filter domain.ProgramBookingsFilter) ([]*domain.Booking, error)
	Complete(ctx context.Context, id int64, rating int, feedback *string) error
	UpdateStudentCount(ctx context.Context, id int64, count int) error
	SetPaymentSettled(ctx context.Context, id int64) error
	AddStudent(ctx context.Context, student *domain.BookingStudent) (*domain.BookingStudent, error)
	ListStudents(ctx context.Context, bookingID int64) ([]*domain.BookingStudent, error)
	DeleteStudent(ctx context.Context, bookingID, studentID int64) error
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
