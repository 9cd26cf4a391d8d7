package get_school_bookings

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
)

type BookingService interface {
	GetSchoolBookings(ctx context.Context, req *models.GetSchoolBookingsRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
