package create_slot

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/api/middleware"
	"github.com/sparkedu/spark-scheduler/internal/service/slots"
)

const (
	msgInvalidProgramID   = "некорректный ID программы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат даты или времени"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgProgramNotFound    = "программа не найдена"
	msgForbidden          = "доступ запрещен"
	msgSlotConflict       = "слот пересекается с существующим"
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

// Handle POST /api/v1/programs/{programId}/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	programID, err := strconv.ParseInt(vars["programId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /programs/{id}/slots - Invalid program ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProgramID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /programs/{id}/slots - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /programs/{id}/slots - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest(programID, userID)
	if err != nil {
		h.logger.Warn("POST /programs/{id}/slots - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.service.CreateSlot(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrProgramNotFound):
			h.logger.Warn("POST /programs/{id}/slots - Program not found: program_id=%d", programID)
			handlers.RespondNotFound(w, msgProgramNotFound)

		case errors.Is(err, slots.ErrAccessDenied):
			h.logger.Warn("POST /programs/{id}/slots - Access denied: program_id=%d, user_id=%d", programID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, slots.ErrSlotConflict):
			h.logger.Warn("POST /programs/{id}/slots - Slot conflict: program_id=%d", programID)
			handlers.RespondError(w, http.StatusConflict, msgSlotConflict)

		case errors.Is(err, slots.ErrInvalidInput):
			h.logger.Warn("POST /programs/{id}/slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /programs/{id}/slots - Failed to create slot: program_id=%d, error=%v", programID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /programs/{id}/slots - Slot created: slot_id=%d, program_id=%d, user_id=%d",
		result.ID, programID, userID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
