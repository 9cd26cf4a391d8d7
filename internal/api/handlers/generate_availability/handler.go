package generate_availability

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sparkedu/spark-scheduler/internal/api/handlers"
	"github.com/sparkedu/spark-scheduler/internal/api/middleware"
	generateAvailability "github.com/sparkedu/spark-scheduler/internal/usecase/generate_availability"
)

const (
	msgInvalidProgramID   = "некорректный ID программы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDates       = "некорректный формат дат, ожидается YYYY-MM-DD"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgProgramNotFound    = "программа не найдена"
	msgProgramInactive    = "программа неактивна"
	msgForbidden          = "доступ запрещен"
	msgInvalidDateRange   = "некорректный диапазон дат"
	msgRangeTooLarge      = "диапазон дат превышает максимум"
)

type Handler struct {
	useCase GenerateAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GenerateAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/programs/{programId}/slots/generate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	programID, err := strconv.ParseInt(vars["programId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /programs/{id}/slots/generate - Invalid program ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProgramID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /programs/{id}/slots/generate - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req GenerateAvailabilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /programs/{id}/slots/generate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(programID, userID)
	if err != nil {
		h.logger.Warn("POST /programs/{id}/slots/generate - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, generateAvailability.ErrProgramNotFound):
			h.logger.Warn("POST /programs/{id}/slots/generate - Program not found: program_id=%d", programID)
			handlers.RespondNotFound(w, msgProgramNotFound)

		case errors.Is(err, generateAvailability.ErrProgramInactive):
			h.logger.Warn("POST /programs/{id}/slots/generate - Program inactive: program_id=%d", programID)
			handlers.RespondBadRequest(w, msgProgramInactive)

		case errors.Is(err, generateAvailability.ErrAccessDenied):
			h.logger.Warn("POST /programs/{id}/slots/generate - Access denied: program_id=%d, user_id=%d",
				programID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, generateAvailability.ErrInvalidDateRange):
			h.logger.Warn("POST /programs/{id}/slots/generate - Invalid date range: program_id=%d", programID)
			handlers.RespondBadRequest(w, msgInvalidDateRange)

		case errors.Is(err, generateAvailability.ErrRangeTooLarge):
			h.logger.Warn("POST /programs/{id}/slots/generate - Range too large: program_id=%d", programID)
			handlers.RespondBadRequest(w, msgRangeTooLarge)

		case errors.Is(err, generateAvailability.ErrInvalidInput):
			h.logger.Warn("POST /programs/{id}/slots/generate - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /programs/{id}/slots/generate - Failed: program_id=%d, error=%v", programID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /programs/{id}/slots/generate - Generated slots: program_id=%d, created=%d, skipped=%d",
		programID, result.CreatedCount, result.SkippedCount)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
