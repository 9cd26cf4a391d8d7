package remove_student

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
	msgInvalidBookingID = "некорректный ID бронирования"
	msgInvalidStudentID = "некорректный ID ученика"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgBookingNotFound  = "бронирование не найдено"
	msgStudentNotFound  = "запись ученика не найдена"
	msgForbidden        = "доступ запрещен"
	msgRosterFrozen     = "состав учеников больше нельзя изменять"
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

// Handle DELETE /api/v1/bookings/{bookingId}/students/{studentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	studentID, err := strconv.ParseInt(vars["studentId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Invalid student ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStudentID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	err = h.service.RemoveStudent(r.Context(), bookingID, &models.RemoveStudentRequest{
		ActorID:   userID,
		StudentID: studentID,
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrStudentNotFound):
			h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Student not found: booking_id=%d, student_id=%d",
				bookingID, studentID)
			handlers.RespondNotFound(w, msgStudentNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Access denied: booking_id=%d, user_id=%d",
				bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Roster frozen: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgRosterFrozen)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("DELETE /bookings/{id}/students/{sid} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		default:
			h.logger.Error("DELETE /bookings/{id}/students/{sid} - Failed to remove student: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /bookings/{id}/students/{sid} - Student removed: booking_id=%d, student_id=%d, user_id=%d",
		bookingID, studentID, userID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
