package generate_availability

import (
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	generateAvailability "github.com/sparkedu/spark-scheduler/internal/usecase/generate_availability"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// TimeTemplateInput шаблон времени в HTTP запросе
type TimeTemplateInput struct {
	StartTime string `json:"startTime"` // "09:00"
	EndTime   string `json:"endTime"`   // "10:30"
}

// GenerateAvailabilityRequest HTTP request model
type GenerateAvailabilityRequest struct {
	StartDate    string              `json:"startDate"` // "2026-05-01"
	EndDate      string              `json:"endDate"`   // "2026-05-31"
	Templates    []TimeTemplateInput `json:"templates"`
	MaxBookings  *int                `json:"maxBookings,omitempty"`
	SkipWeekends bool                `json:"skipWeekends,omitempty"`
	Notes        *string             `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *GenerateAvailabilityRequest) ToUseCaseRequest(programID, actorID int64) (*generateAvailability.Request, error) {
	startDate, err := time.Parse(domain.DateFormat, r.StartDate)
	if err != nil {
		return nil, err
	}

	endDate, err := time.Parse(domain.DateFormat, r.EndDate)
	if err != nil {
		return nil, err
	}

	templates := make([]domain.TimeTemplate, len(r.Templates))
	for i, tpl := range r.Templates {
		start, err := types.NewTimeStringFromString(tpl.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := types.NewTimeStringFromString(tpl.EndTime)
		if err != nil {
			return nil, err
		}
		templates[i] = domain.TimeTemplate{Start: start, End: end}
	}

	return &generateAvailability.Request{
		ProgramID:    programID,
		ActorID:      actorID,
		StartDate:    startDate,
		EndDate:      endDate,
		Templates:    templates,
		MaxBookings:  r.MaxBookings,
		SkipWeekends: r.SkipWeekends,
		Notes:        r.Notes,
	}, nil
}
