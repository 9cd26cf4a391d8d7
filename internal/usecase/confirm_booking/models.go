package confirm_booking

import (
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// Request модель запроса на подтверждение бронирования.
// SlotID указывает конкретный слот; если он не задан, слот
// подбирается по запрошенным дате и времени бронирования,
// а при отсутствии создается автоматически.
type Request struct {
	BookingID int64  // ID бронирования
	ActorID   int64  // ID пользователя-оператора
	SlotID    *int64 // Явный слот (опционально)
}

// Response модель ответа с подтвержденным бронированием
type Response struct {
	ID            int64            `json:"id"`
	Reference     string           `json:"reference"`
	ProgramID     int64            `json:"programId"`
	SlotID        int64            `json:"slotId"`
	Status        string           `json:"status"`
	ConfirmedDate string           `json:"confirmedDate"`
	ConfirmedTime types.TimeString `json:"confirmedTime"`
	StudentCount  int              `json:"studentCount"`
	TotalPrice    float64          `json:"totalPrice"`
}
