package complete_booking

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
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgBookingNotFound    = "бронирование не найдено"
	msgProgramNotFound    = "программа не найдена"
	msgForbidden          = "доступ запрещен"
	msgInvalidTransition  = "завершить можно только подтвержденное бронирование"
	msgNotYetOccurred     = "дата визита еще не наступила"
	msgInvalidRating      = "оценка должна быть от 1 до 5"
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

// Handle POST /api/v1/bookings/{bookingId}/complete
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/complete - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/complete - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CompleteBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/complete - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Complete(r.Context(), bookingID, &models.CompleteBookingRequest{
		ActorID:  userID,
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/complete - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrProgramNotFound):
			h.logger.Warn("POST /bookings/{id}/complete - Program not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgProgramNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/complete - Access denied: booking_id=%d, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("POST /bookings/{id}/complete - Invalid transition: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)

		case errors.Is(err, bookings.ErrNotYetOccurred):
			h.logger.Warn("POST /bookings/{id}/complete - Not yet occurred: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgNotYetOccurred)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/complete - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRating)

		default:
			h.logger.Error("POST /bookings/{id}/complete - Failed to complete: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/complete - Booking completed: booking_id=%d, rating=%d, user_id=%d",
		result.ID, req.Rating, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
