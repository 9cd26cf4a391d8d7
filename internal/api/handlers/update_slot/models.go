package update_slot

import (
	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// UpdateSlotRequest HTTP request model. Незаполненные поля не изменяются.
type UpdateSlotRequest struct {
	StartTime   *string `json:"startTime,omitempty"`
	EndTime     *string `json:"endTime,omitempty"`
	MaxBookings *int    `json:"maxBookings,omitempty"`
	IsAvailable *bool   `json:"isAvailable,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateSlotRequest) ToServiceRequest(actorID int64) (*models.UpdateSlotRequest, error) {
	req := &models.UpdateSlotRequest{
		ActorID:     actorID,
		MaxBookings: r.MaxBookings,
		IsAvailable: r.IsAvailable,
		Notes:       r.Notes,
	}

	if r.StartTime != nil {
		startTime, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, err
		}
		req.StartTime = &startTime
	}

	if r.EndTime != nil {
		endTime, err := types.NewTimeStringFromString(*r.EndTime)
		if err != nil {
			return nil, err
		}
		req.EndTime = &endTime
	}

	return req, nil
}
