package slots

import (
	"context"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error)
	GetByID(ctx context.Context, id int64) (*domain.AvailabilitySlot, error)
	ListByProgram(ctx context.Context, filter domain.SlotFilter) ([]*domain.AvailabilitySlot, error)
	FindOverlapping(ctx context.Context, programID int64, date time.Time, start, end types.TimeString, excludeSlotID *int64) ([]*domain.AvailabilitySlot, error)
	Update(ctx context.Context, slot *domain.AvailabilitySlot) error
	Delete(ctx context.Context, id int64) error
	BulkSetAvailability(ctx context.Context, ids []int64, isAvailable bool) (int64, error)
}

// ProgramDirectoryClient интерфейс клиента каталога программ
type ProgramDirectoryClient interface {
	GetProgram(ctx context.Context, programID int64) (*programdirectory.Program, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
