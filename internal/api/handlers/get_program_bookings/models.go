package get_program_bookings

import (
	"net/url"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
)

// parseQuery разбирает query-параметры в модель сервиса
func parseQuery(programID, actorID int64, query url.Values) (*models.GetProgramBookingsRequest, error) {
	req := &models.GetProgramBookingsRequest{
		ProgramID: programID,
		ActorID:   actorID,
	}

	if from := query.Get("from"); from != "" {
		fromDate, err := time.Parse(domain.DateFormat, from)
		if err != nil {
			return nil, err
		}
		req.FromDate = &fromDate
	}

	if to := query.Get("to"); to != "" {
		toDate, err := time.Parse(domain.DateFormat, to)
		if err != nil {
			return nil, err
		}
		req.ToDate = &toDate
	}

	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	req.IncludeCancelled = query.Get("includeCancelled") == "true"

	return req, nil
}
