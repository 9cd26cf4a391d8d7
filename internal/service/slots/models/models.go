package models

import (
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// Request модели

// CreateSlotRequest запрос на создание слота оператором
type CreateSlotRequest struct {
	ActorID     int64
	ProgramID   int64
	Date        time.Time
	StartTime   types.TimeString
	EndTime     types.TimeString
	MaxBookings int
	Notes       *string
}

// UpdateSlotRequest запрос на обновление слота.
// nil-поля не изменяются (явный контракт обновления вместо mass assignment).
type UpdateSlotRequest struct {
	ActorID     int64
	StartTime   *types.TimeString
	EndTime     *types.TimeString
	MaxBookings *int
	IsAvailable *bool
	Notes       *string
}

// GetProgramSlotsRequest запрос на получение слотов программы
type GetProgramSlotsRequest struct {
	ProgramID     int64
	FromDate      *time.Time
	ToDate        *time.Time
	OnlyAvailable bool
}

// BulkSetAvailabilityRequest запрос на массовое переключение доступности слотов
type BulkSetAvailabilityRequest struct {
	ActorID     int64
	SlotIDs     []int64
	IsAvailable bool
}

// Response модели

// SlotResponse слот в ответе сервиса
type SlotResponse struct {
	ID                int64            `json:"id"`
	ProgramID         int64            `json:"programId"`
	Date              string           `json:"date"`
	StartTime         types.TimeString `json:"startTime"`
	EndTime           types.TimeString `json:"endTime"`
	MaxBookings       int              `json:"maxBookings"`
	CurrentBookings   int              `json:"currentBookings"`
	AvailableBookings int              `json:"availableBookings"`
	IsAvailable       bool             `json:"isAvailable"`
	IsFull            bool             `json:"isFull"`
	Notes             *string          `json:"notes,omitempty"`
	CreatedAt         string           `json:"createdAt"`
	UpdatedAt         string           `json:"updatedAt"`
}

// SlotListResponse список слотов
type SlotListResponse struct {
	Slots []*SlotResponse `json:"slots"`
	Total int             `json:"total"`
}

// BulkSetAvailabilityResponse результат массового переключения
type BulkSetAvailabilityResponse struct {
	UpdatedCount int64 `json:"updatedCount"`
}

// FromDomainSlot конвертирует доменный слот в ответ сервиса
func FromDomainSlot(slot *domain.AvailabilitySlot) *SlotResponse {
	return &SlotResponse{
		ID:                slot.ID,
		ProgramID:         slot.ProgramID,
		Date:              slot.SlotDate.Format(domain.DateFormat),
		StartTime:         slot.StartTime,
		EndTime:           slot.EndTime,
		MaxBookings:       slot.MaxBookings,
		CurrentBookings:   slot.CurrentBookings,
		AvailableBookings: slot.AvailableBookings(),
		IsAvailable:       slot.IsAvailable,
		IsFull:            slot.IsFull(),
		Notes:             slot.Notes,
		CreatedAt:         slot.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         slot.UpdatedAt.Format(time.RFC3339),
	}
}

// FromDomainSlotList конвертирует список доменных слотов
func FromDomainSlotList(slots []*domain.AvailabilitySlot) *SlotListResponse {
	result := make([]*SlotResponse, len(slots))
	for i, slot := range slots {
		result[i] = FromDomainSlot(slot)
	}
	return &SlotListResponse{
		Slots: result,
		Total: len(result),
	}
}
