package bulk_set_availability

import (
	"errors"
	"net/http"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/api/middleware"
	"github.com/sparkedu/spark-scheduler/internal/service/slots"
	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgSlotNotFound       = "один из слотов не найден"
	msgForbidden          = "доступ запрещен"
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

// Handle PATCH /api/v1/slots/bulk-availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /slots/bulk-availability - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req BulkSetAvailabilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /slots/bulk-availability - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.BulkSetAvailability(r.Context(), &models.BulkSetAvailabilityRequest{
		ActorID:     userID,
		SlotIDs:     req.SlotIDs,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrSlotNotFound):
			h.logger.Warn("PATCH /slots/bulk-availability - Slot not found")
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, slots.ErrAccessDenied):
			h.logger.Warn("PATCH /slots/bulk-availability - Access denied: user_id=%d", userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, slots.ErrInvalidInput):
			h.logger.Warn("PATCH /slots/bulk-availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("PATCH /slots/bulk-availability - Failed: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /slots/bulk-availability - Updated %d slots: user_id=%d", result.UpdatedCount, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
