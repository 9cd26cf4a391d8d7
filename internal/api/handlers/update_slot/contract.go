package update_slot

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
)

type SlotService interface {
	UpdateSlot(ctx context.Context, slotID int64, req *models.UpdateSlotRequest) (*models.SlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
