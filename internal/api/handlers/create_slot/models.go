package create_slot

import (
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// CreateSlotRequest HTTP request model
type CreateSlotRequest struct {
	Date        string  `json:"date"`      // "2026-05-12"
	StartTime   string  `json:"startTime"` // "09:00"
	EndTime     string  `json:"endTime"`   // "10:30"
	MaxBookings int     `json:"maxBookings,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateSlotRequest) ToServiceRequest(programID, actorID int64) (*models.CreateSlotRequest, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	endTime, err := types.NewTimeStringFromString(r.EndTime)
	if err != nil {
		return nil, err
	}

	maxBookings := r.MaxBookings
	if maxBookings == 0 {
		maxBookings = domain.DefaultSlotMaxBookings
	}

	return &models.CreateSlotRequest{
		ActorID:     actorID,
		ProgramID:   programID,
		Date:        date,
		StartTime:   startTime,
		EndTime:     endTime,
		MaxBookings: maxBookings,
		Notes:       r.Notes,
	}, nil
}
