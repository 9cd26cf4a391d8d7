package domain

import (
	"time"

	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// AvailabilitySlot represents a bookable time window of a program on a specific date
type AvailabilitySlot struct {
	ID        int64
	ProgramID int64

	SlotDate  time.Time // calendar date, time portion is zero
	StartTime types.TimeString
	EndTime   types.TimeString

	MaxBookings     int // slot capacity in bookings, not students
	CurrentBookings int
	IsAvailable     bool // operator override, independent from capacity

	Notes *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFull returns true if the slot has no reservation units left
func (s *AvailabilitySlot) IsFull() bool {
	return s.CurrentBookings >= s.MaxBookings
}

// HasCapacity returns true if the slot can accept one more booking
func (s *AvailabilitySlot) HasCapacity() bool {
	return s.IsAvailable && !s.IsFull()
}

// AvailableBookings returns the number of free reservation units
func (s *AvailabilitySlot) AvailableBookings() int {
	free := s.MaxBookings - s.CurrentBookings
	if free < 0 {
		return 0
	}
	return free
}

// Overlaps returns true if [start, end) intersects the slot's time range.
// Touching boundaries do not count as an overlap.
func (s *AvailabilitySlot) Overlaps(start, end types.TimeString) bool {
	return s.StartTime.IsBefore(end) && s.EndTime.IsAfter(start)
}

// SlotFilter фильтр для получения слотов программы
type SlotFilter struct {
	ProgramID     int64      // Обязательный параметр
	FromDate      *time.Time // Начало периода (опционально)
	ToDate        *time.Time // Конец периода (опционально)
	OnlyAvailable bool       // Только слоты с is_available = true
}

// TimeTemplate шаблон времени слота для пакетной генерации
type TimeTemplate struct {
	Start types.TimeString
	End   types.TimeString
}
