package get_program_slots

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
)

type SlotService interface {
	GetProgramSlots(ctx context.Context, req *models.GetProgramSlotsRequest) (*models.SlotListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
