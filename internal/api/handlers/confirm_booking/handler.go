package confirm_booking

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/api/middleware"
	confirmBooking "github.com/sparkedu/spark-scheduler/internal/usecase/confirm_booking"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgBookingNotFound    = "бронирование не найдено"
	msgProgramNotFound    = "программа не найдена"
	msgSlotNotFound       = "слот не найден"
	msgSlotFull           = "в слоте нет свободных мест"
	msgSlotUnavailable    = "слот закрыт для бронирования"
	msgSlotMismatch       = "слот не соответствует бронированию"
	msgSlotConflict       = "запрошенное время пересекается с существующим слотом"
	msgForbidden          = "доступ запрещен"
	msgInvalidTransition  = "недопустимый переход статуса бронирования"
	msgConcurrentUpdate   = "конкурентное изменение, повторите запрос"
)

type Handler struct {
	useCase ConfirmBookingUseCase
	logger  Logger
}

func NewHandler(useCase ConfirmBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/confirm
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/confirm - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/confirm - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	// Тело запроса опционально
	var req ConfirmBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("POST /bookings/{id}/confirm - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &confirmBooking.Request{
		BookingID: bookingID,
		ActorID:   userID,
		SlotID:    req.SlotID,
	})
	if err != nil {
		switch {
		case errors.Is(err, confirmBooking.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/confirm - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, confirmBooking.ErrProgramNotFound):
			h.logger.Warn("POST /bookings/{id}/confirm - Program not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgProgramNotFound)

		case errors.Is(err, confirmBooking.ErrSlotNotFound):
			h.logger.Warn("POST /bookings/{id}/confirm - Slot not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, confirmBooking.ErrSlotFull):
			h.logger.Warn("POST /bookings/{id}/confirm - Slot full: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotFull)

		case errors.Is(err, confirmBooking.ErrSlotUnavailable):
			h.logger.Warn("POST /bookings/{id}/confirm - Slot unavailable: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotUnavailable)

		case errors.Is(err, confirmBooking.ErrSlotConflict):
			h.logger.Warn("POST /bookings/{id}/confirm - Slot conflict: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotConflict)

		case errors.Is(err, confirmBooking.ErrSlotMismatch):
			h.logger.Warn("POST /bookings/{id}/confirm - Slot mismatch: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgSlotMismatch)

		case errors.Is(err, confirmBooking.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/confirm - Access denied: booking_id=%d, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, confirmBooking.ErrInvalidTransition):
			h.logger.Warn("POST /bookings/{id}/confirm - Invalid transition: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)

		case errors.Is(err, confirmBooking.ErrConcurrentUpdate):
			h.logger.Warn("POST /bookings/{id}/confirm - Concurrent update: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgConcurrentUpdate)

		case errors.Is(err, confirmBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/confirm - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /bookings/{id}/confirm - Failed to confirm: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/confirm - Booking confirmed: booking_id=%d, slot_id=%d, user_id=%d",
		result.ID, result.SlotID, userID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
