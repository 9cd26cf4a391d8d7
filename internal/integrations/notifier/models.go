package notifier

import "time"

// Event тип события жизненного цикла бронирования.
// Имя события совпадает с именем durable-очереди, в которую оно публикуется.
type Event string

const (
	EventBookingCreated   Event = "booking.created"
	EventBookingConfirmed Event = "booking.confirmed"
	EventBookingCancelled Event = "booking.cancelled"
	EventBookingCompleted Event = "booking.completed"
)

// events полный список событий; очереди объявляются при старте
var events = []Event{
	EventBookingCreated,
	EventBookingConfirmed,
	EventBookingCancelled,
	EventBookingCompleted,
}

// BookingEvent полезная нагрузка события бронирования.
// TotalPrice = studentCount * pricePerStudent публикуется для платежного
// коллаборатора; сам планировщик платежи не проводит.
type BookingEvent struct {
	BookingID    int64     `json:"bookingId"`
	Reference    string    `json:"reference"`
	ProgramID    int64     `json:"programId"`
	SchoolUserID int64     `json:"schoolUserId"`
	Status       string    `json:"status"`
	StudentCount int       `json:"studentCount"`
	TotalPrice   float64   `json:"totalPrice"`
	OccurredAt   time.Time `json:"occurredAt"`
}
