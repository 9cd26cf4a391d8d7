package get_program_bookings

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
)

type BookingService interface {
	GetProgramBookings(ctx context.Context, req *models.GetProgramBookingsRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
