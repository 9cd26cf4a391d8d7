package bulk_set_availability

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
)

type SlotService interface {
	BulkSetAvailability(ctx context.Context, req *models.BulkSetAvailabilityRequest) (*models.BulkSetAvailabilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
