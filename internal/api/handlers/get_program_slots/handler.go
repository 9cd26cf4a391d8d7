package get_program_slots

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/service/slots"
	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
)

const (
	msgInvalidProgramID = "некорректный ID программы"
	msgInvalidQuery     = "некорректные параметры запроса"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/programs/{programId}/slots?from=&to=&onlyAvailable=
// Публичный эндпоинт: школы просматривают доступные окна без аутентификации.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	programID, err := strconv.ParseInt(vars["programId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /programs/{id}/slots - Invalid program ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProgramID)
		return
	}

	req := &models.GetProgramSlotsRequest{
		ProgramID:     programID,
		OnlyAvailable: r.URL.Query().Get("onlyAvailable") == "true",
	}

	if from := r.URL.Query().Get("from"); from != "" {
		fromDate, err := time.Parse(domain.DateFormat, from)
		if err != nil {
			h.logger.Warn("GET /programs/{id}/slots - Invalid from date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)
			return
		}
		req.FromDate = &fromDate
	}

	if to := r.URL.Query().Get("to"); to != "" {
		toDate, err := time.Parse(domain.DateFormat, to)
		if err != nil {
			h.logger.Warn("GET /programs/{id}/slots - Invalid to date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)
			return
		}
		req.ToDate = &toDate
	}

	result, err := h.service.GetProgramSlots(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrInvalidInput):
			h.logger.Warn("GET /programs/{id}/slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /programs/{id}/slots - Failed: program_id=%d, error=%v", programID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /programs/{id}/slots - Retrieved %d slots: program_id=%d", result.Total, programID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
