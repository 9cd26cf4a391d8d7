package generate_availability

import (
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// Request модель запроса на пакетную генерацию слотов доступности
type Request struct {
	ProgramID    int64                 // ID программы
	ActorID      int64                 // ID пользователя-оператора
	StartDate    time.Time             // Начало диапазона (включительно)
	EndDate      time.Time             // Конец диапазона (включительно)
	Templates    []domain.TimeTemplate // Шаблоны времени, применяемые к каждому дню
	MaxBookings  *int                  // Вместимость каждого слота (опционально)
	SkipWeekends bool                  // Пропускать субботу и воскресенье
	Notes        *string               // Заметки для создаваемых слотов (опционально)
}

// SlotSummary краткая запись о созданном слоте
type SlotSummary struct {
	ID        int64            `json:"id"`
	SlotDate  string           `json:"slotDate"`
	StartTime types.TimeString `json:"startTime"`
	EndTime   types.TimeString `json:"endTime"`
}

// Response модель ответа пакетной генерации.
// Конфликтующие комбинации дата+шаблон молча пропускаются и
// учитываются в SkippedCount.
type Response struct {
	CreatedCount int            `json:"createdCount"`
	SkippedCount int            `json:"skippedCount"`
	Created      []*SlotSummary `json:"created"`
}
