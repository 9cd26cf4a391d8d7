package get_school_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/api/middleware"
	"github.com/sparkedu/spark-scheduler/internal/service/bookings"
	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
)

const (
	msgInvalidSchoolID = "некорректный ID школы"
	msgMissingUserID   = "отсутствует ID пользователя"
	msgForbidden       = "доступ запрещен"
	msgInvalidStatus   = "некорректный статус бронирования"
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

// Handle GET /api/v1/schools/{schoolId}/bookings?status=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	schoolID, err := strconv.ParseInt(vars["schoolId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /schools/{id}/bookings - Invalid school ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSchoolID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /schools/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req := &models.GetSchoolBookingsRequest{
		SchoolUserID: schoolID,
		ActorID:      userID,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = &status
	}

	result, err := h.service.GetSchoolBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /schools/{id}/bookings - Access denied: school_id=%d, user_id=%d", schoolID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /schools/{id}/bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidStatus)

		default:
			h.logger.Error("GET /schools/{id}/bookings - Failed: school_id=%d, error=%v", schoolID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /schools/{id}/bookings - Retrieved %d bookings: school_id=%d", result.Total, schoolID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
