package add_student

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
)

type BookingService interface {
	AddStudent(ctx context.Context, bookingID int64, req *models.AddStudentRequest) (*models.StudentResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
