package domain

import (
	"time"

	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Booking represents a school's reservation against an educational program
type Booking struct {
	ID           int64
	Reference    string // внешний UUID для событий и интеграций
	ProgramID    int64
	SchoolUserID int64  // ID пользователя школы, создавшего бронирование
	SlotID       *int64 // заполняется при подтверждении

	RequestedDate time.Time
	RequestedTime types.TimeString
	StudentCount  int
	Status        BookingStatus

	ContactName  string
	ContactEmail string
	ContactPhone *string

	// Denormalized program data for history
	ProgramTitle    string
	PricePerStudent float64

	ConfirmedDate *time.Time
	ConfirmedTime *types.TimeString

	Rating   *int
	Feedback *string

	CancellationReason *string
	CancelledAt        *time.Time

	PaymentSettledAt *time.Time
	Notes            *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still occupies or may occupy slot capacity
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// CanBeConfirmed returns true if the booking can transition to confirmed
func (b *Booking) CanBeConfirmed() bool {
	return b.Status == StatusPending
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeCompleted returns true if the booking can transition to completed
func (b *Booking) CanBeCompleted() bool {
	return b.Status == StatusConfirmed
}

// CanManageStudents returns true if the roster may still be modified
func (b *Booking) CanManageStudents() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsTerminal returns true if the booking reached a final state
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

// TotalPrice returns the computed total for the payment collaborator
func (b *Booking) TotalPrice() float64 {
	return float64(b.StudentCount) * b.PricePerStudent
}

// HasOccurred returns true if the confirmed date and time are in the past.
// Bookings without a confirmed date have not occurred.
func (b *Booking) HasOccurred(now time.Time) bool {
	if b.ConfirmedDate == nil {
		return false
	}

	confirmed := time.Date(
		b.ConfirmedDate.Year(), b.ConfirmedDate.Month(), b.ConfirmedDate.Day(),
		0, 0, 0, 0, now.Location(),
	)

	if b.ConfirmedTime != nil {
		if minutes, err := b.ConfirmedTime.Minutes(); err == nil {
			confirmed = confirmed.Add(time.Duration(minutes) * time.Minute)
		}
	}

	return confirmed.Before(now)
}

// ProgramBookingsFilter фильтр для получения бронирований программы
type ProgramBookingsFilter struct {
	ProgramID        int64          // Обязательный параметр
	FromDate         *time.Time     // Начало периода (опционально)
	ToDate           *time.Time     // Конец периода (опционально)
	Status           *BookingStatus // Фильтр по статусу (опционально)
	IncludeCancelled bool           // Включать ли отмененные бронирования
}
