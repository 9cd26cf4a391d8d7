package get_program_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/api/middleware"
	"github.com/sparkedu/spark-scheduler/internal/service/bookings"
)

const (
	msgInvalidProgramID = "некорректный ID программы"
	msgInvalidQuery     = "некорректные параметры запроса"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgProgramNotFound  = "программа не найдена"
	msgForbidden        = "доступ запрещен"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/programs/{programId}/bookings?from=&to=&status=&includeCancelled=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	programID, err := strconv.ParseInt(vars["programId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /programs/{id}/bookings - Invalid program ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProgramID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /programs/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req, err := parseQuery(programID, userID, r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /programs/{id}/bookings - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetProgramBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrProgramNotFound):
			h.logger.Warn("GET /programs/{id}/bookings - Program not found: program_id=%d", programID)
			handlers.RespondNotFound(w, msgProgramNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /programs/{id}/bookings - Access denied: program_id=%d, user_id=%d", programID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /programs/{id}/bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /programs/{id}/bookings - Failed: program_id=%d, error=%v", programID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /programs/{id}/bookings - Retrieved %d bookings: program_id=%d", result.Total, programID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
