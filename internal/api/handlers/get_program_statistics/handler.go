package get_program_statistics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/service/statistics"
	"github.com/sparkedu/spark-scheduler/internal/service/statistics/models"
)

const (
	msgInvalidProgramID = "некорректный ID программы"
	msgInvalidQuery     = "некорректные параметры запроса, ожидаются from и to в формате YYYY-MM-DD"
)

type Handler struct {
	service StatisticsService
	logger  Logger
}

func NewHandler(service StatisticsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/programs/{programId}/statistics?from=&to=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	programID, err := strconv.ParseInt(vars["programId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /programs/{id}/statistics - Invalid program ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProgramID)
		return
	}

	fromDate, err := time.Parse(domain.DateFormat, r.URL.Query().Get("from"))
	if err != nil {
		h.logger.Warn("GET /programs/{id}/statistics - Invalid from date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	toDate, err := time.Parse(domain.DateFormat, r.URL.Query().Get("to"))
	if err != nil {
		h.logger.Warn("GET /programs/{id}/statistics - Invalid to date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetProgramStatistics(r.Context(), &models.GetProgramStatisticsRequest{
		ProgramID: programID,
		FromDate:  fromDate,
		ToDate:    toDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, statistics.ErrInvalidInput):
			h.logger.Warn("GET /programs/{id}/statistics - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /programs/{id}/statistics - Failed: program_id=%d, error=%v", programID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /programs/{id}/statistics - Statistics retrieved: program_id=%d", programID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
