package create_booking

import (
	"time"

	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// StudentInput запись ученика при создании бронирования
type StudentInput struct {
	Name            string
	GradeLevel      string
	GuardianContact string
}

// Request модель запроса на создание бронирования
type Request struct {
	SchoolUserID  int64            // ID пользователя школы
	ProgramID     int64            // ID программы
	RequestedDate time.Time        // Желаемая дата визита (без времени)
	RequestedTime types.TimeString // Желаемое время начала (например, "10:00")
	StudentCount  int              // Количество учеников
	ContactName   string           // Контактное лицо
	ContactEmail  string           // Email для связи
	ContactPhone  *string          // Телефон (опционально)
	Notes         *string          // Заметки (опционально)
	Students      []StudentInput   // Начальный состав учеников (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID            int64            `json:"id"`
	Reference     string           `json:"reference"`
	ProgramID     int64            `json:"programId"`
	SchoolUserID  int64            `json:"schoolUserId"`
	RequestedDate string           `json:"requestedDate"`
	RequestedTime types.TimeString `json:"requestedTime"`
	StudentCount  int              `json:"studentCount"`
	Status        string           `json:"status"`

	// Денормализованные данные программы
	ProgramTitle    string  `json:"programTitle"`
	PricePerStudent float64 `json:"pricePerStudent"`
	TotalPrice      float64 `json:"totalPrice"`

	Notes *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
