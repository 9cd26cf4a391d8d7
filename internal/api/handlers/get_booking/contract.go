package get_booking

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
)

type BookingService interface {
	GetBooking(ctx context.Context, bookingID, actorID int64) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
