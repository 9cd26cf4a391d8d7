package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	slotRepo "github.com/sparkedu/spark-scheduler/internal/infra/storage/slot"
	programClient "github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/internal/service/slots/models"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// Service сервис для операторских операций со слотами доступности
type Service struct {
	slotRepo      SlotRepository
	programClient ProgramDirectoryClient
	logger        Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(
	slotRepo SlotRepository,
	programClient ProgramDirectoryClient,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:      slotRepo,
		programClient: programClient,
		logger:        logger,
	}
}

// GetProgramSlots возвращает слоты программы за период
func (s *Service) GetProgramSlots(ctx context.Context, req *models.GetProgramSlotsRequest) (*models.SlotListResponse, error) {
	s.logger.Info("GetProgramSlots: program=%d", req.ProgramID)

	if req.ProgramID <= 0 {
		return nil, fmt.Errorf("%w: programID must be positive", ErrInvalidInput)
	}

	slots, err := s.slotRepo.ListByProgram(ctx, domain.SlotFilter{
		ProgramID:     req.ProgramID,
		FromDate:      req.FromDate,
		ToDate:        req.ToDate,
		OnlyAvailable: req.OnlyAvailable,
	})
	if err != nil {
		s.logger.Error("GetProgramSlots: repository error for program=%d: %v", req.ProgramID, err)
		return nil, fmt.Errorf("%w: GetProgramSlots - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetProgramSlots: fetched %d slots for program=%d", len(slots), req.ProgramID)
	return models.FromDomainSlotList(slots), nil
}

// HasConflict проверяет, пересекается ли интервал [start, end) с существующими
// слотами программы на указанную дату. Чистый запрос без побочных эффектов.
func (s *Service) HasConflict(
	ctx context.Context,
	programID int64,
	date time.Time,
	start, end types.TimeString,
	excludeSlotID *int64,
) (bool, error) {
	if end.IsZero() || start.IsZero() || !start.IsBefore(end) {
		return false, fmt.Errorf("%w: start time must be before end time", ErrInvalidInput)
	}

	overlapping, err := s.slotRepo.FindOverlapping(ctx, programID, date, start, end, excludeSlotID)
	if err != nil {
		return false, fmt.Errorf("%w: HasConflict - repository error: %v", ErrInternal, err)
	}

	return len(overlapping) > 0, nil
}

// CreateSlot создает слот вручную (операторский ввод).
// Пересечение с существующим слотом программы - ошибка, в отличие от
// пакетной генерации, где конфликтующие кандидаты молча пропускаются.
func (s *Service) CreateSlot(ctx context.Context, req *models.CreateSlotRequest) (*models.SlotResponse, error) {
	s.logger.Info("CreateSlot: program=%d, date=%s, start=%s, actor=%d",
		req.ProgramID, req.Date.Format(domain.DateFormat), req.StartTime, req.ActorID)

	if err := validateCreateSlot(req); err != nil {
		s.logger.Warn("CreateSlot: validation failed: %v", err)
		return nil, err
	}

	if err := s.checkOperatorAccess(ctx, req.ProgramID, req.ActorID); err != nil {
		return nil, err
	}

	conflict, err := s.HasConflict(ctx, req.ProgramID, req.Date, req.StartTime, req.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		s.logger.Warn("CreateSlot: conflict for program=%d on %s %s-%s",
			req.ProgramID, req.Date.Format(domain.DateFormat), req.StartTime, req.EndTime)
		return nil, ErrSlotConflict
	}

	slot := &domain.AvailabilitySlot{
		ProgramID:       req.ProgramID,
		SlotDate:        req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxBookings:     req.MaxBookings,
		CurrentBookings: 0,
		IsAvailable:     true,
		Notes:           req.Notes,
	}

	created, err := s.slotRepo.Create(ctx, slot)
	if err != nil {
		s.logger.Error("CreateSlot: repository error for program=%d: %v", req.ProgramID, err)
		return nil, fmt.Errorf("%w: CreateSlot - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateSlot: created slot id=%d for program=%d", created.ID, created.ProgramID)
	return models.FromDomainSlot(created), nil
}

// UpdateSlot обновляет операторские поля слота.
// При изменении времени интервал заново проверяется на конфликты
// против всех слотов программы, кроме самого обновляемого.
func (s *Service) UpdateSlot(ctx context.Context, slotID int64, req *models.UpdateSlotRequest) (*models.SlotResponse, error) {
	s.logger.Info("UpdateSlot: slot=%d, actor=%d", slotID, req.ActorID)

	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if err := s.checkOperatorAccess(ctx, slot.ProgramID, req.ActorID); err != nil {
		return nil, err
	}

	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if req.MaxBookings != nil {
		slot.MaxBookings = *req.MaxBookings
	}
	if req.IsAvailable != nil {
		slot.IsAvailable = *req.IsAvailable
	}
	if req.Notes != nil {
		slot.Notes = req.Notes
	}

	if err := validateSlotFields(slot); err != nil {
		s.logger.Warn("UpdateSlot: validation failed for slot=%d: %v", slotID, err)
		return nil, err
	}

	if req.StartTime != nil || req.EndTime != nil {
		conflict, err := s.HasConflict(ctx, slot.ProgramID, slot.SlotDate, slot.StartTime, slot.EndTime, &slot.ID)
		if err != nil {
			return nil, err
		}
		if conflict {
			s.logger.Warn("UpdateSlot: conflict for slot=%d %s-%s", slotID, slot.StartTime, slot.EndTime)
			return nil, ErrSlotConflict
		}
	}

	if err := s.slotRepo.Update(ctx, slot); err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("UpdateSlot: repository error for slot=%d: %v", slotID, err)
		return nil, fmt.Errorf("%w: UpdateSlot - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateSlot: updated slot id=%d", slotID)
	return models.FromDomainSlot(slot), nil
}

// DeleteSlot удаляет слот. Слот с бронированиями удалить нельзя.
func (s *Service) DeleteSlot(ctx context.Context, slotID, actorID int64) error {
	s.logger.Info("DeleteSlot: slot=%d, actor=%d", slotID, actorID)

	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return err
	}

	if err := s.checkOperatorAccess(ctx, slot.ProgramID, actorID); err != nil {
		return err
	}

	if err := s.slotRepo.Delete(ctx, slotID); err != nil {
		switch {
		case errors.Is(err, slotRepo.ErrSlotNotFound):
			return ErrSlotNotFound
		case errors.Is(err, slotRepo.ErrSlotHasBookings):
			s.logger.Warn("DeleteSlot: slot=%d has active bookings", slotID)
			return ErrSlotHasBookings
		default:
			s.logger.Error("DeleteSlot: repository error for slot=%d: %v", slotID, err)
			return fmt.Errorf("%w: DeleteSlot - repository error: %v", ErrInternal, err)
		}
	}

	s.logger.Info("DeleteSlot: deleted slot id=%d", slotID)
	return nil
}

// BulkSetAvailability применяет операторский флаг is_available к списку слотов.
// Счетчики бронирований не затрагиваются.
func (s *Service) BulkSetAvailability(ctx context.Context, req *models.BulkSetAvailabilityRequest) (*models.BulkSetAvailabilityResponse, error) {
	s.logger.Info("BulkSetAvailability: %d slots, isAvailable=%t, actor=%d",
		len(req.SlotIDs), req.IsAvailable, req.ActorID)

	if len(req.SlotIDs) == 0 {
		return nil, fmt.Errorf("%w: slotIDs must not be empty", ErrInvalidInput)
	}

	// Проверяем права оператора по каждой затронутой программе
	checkedPrograms := make(map[int64]bool)
	for _, slotID := range req.SlotIDs {
		slot, err := s.getSlot(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if checkedPrograms[slot.ProgramID] {
			continue
		}
		if err := s.checkOperatorAccess(ctx, slot.ProgramID, req.ActorID); err != nil {
			return nil, err
		}
		checkedPrograms[slot.ProgramID] = true
	}

	updated, err := s.slotRepo.BulkSetAvailability(ctx, req.SlotIDs, req.IsAvailable)
	if err != nil {
		s.logger.Error("BulkSetAvailability: repository error: %v", err)
		return nil, fmt.Errorf("%w: BulkSetAvailability - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("BulkSetAvailability: updated %d slots", updated)
	return &models.BulkSetAvailabilityResponse{UpdatedCount: updated}, nil
}

// Вспомогательные методы

func (s *Service) getSlot(ctx context.Context, slotID int64) (*domain.AvailabilitySlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("slot id=%d not found", slotID)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("failed to get slot id=%d: %v", slotID, err)
		return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
	}
	return slot, nil
}

// checkOperatorAccess проверяет, что пользователь является оператором программы
func (s *Service) checkOperatorAccess(ctx context.Context, programID, actorID int64) error {
	program, err := s.programClient.GetProgram(ctx, programID)
	if err != nil {
		if errors.Is(err, programClient.ErrProgramNotFound) {
			s.logger.Warn("checkOperatorAccess: program id=%d not found", programID)
			return ErrProgramNotFound
		}
		s.logger.Error("checkOperatorAccess: failed to get program id=%d: %v", programID, err)
		return fmt.Errorf("%w: checkOperatorAccess - failed to get program: %v", ErrInternal, err)
	}

	if !program.HasOperator(actorID) {
		s.logger.Warn("checkOperatorAccess: user=%d is not an operator of program=%d", actorID, programID)
		return ErrAccessDenied
	}

	return nil
}

// validateCreateSlot валидирует запрос на создание слота
func validateCreateSlot(req *models.CreateSlotRequest) error {
	if req.ProgramID <= 0 {
		return fmt.Errorf("%w: programID must be positive", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}
	if err := req.EndTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid endTime: %v", ErrInvalidInput, err)
	}
	if !req.StartTime.IsBefore(req.EndTime) {
		return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}
	if req.MaxBookings < domain.MinSlotMaxBookings || req.MaxBookings > domain.MaxSlotMaxBookings {
		return fmt.Errorf("%w: maxBookings must be between %d and %d",
			ErrInvalidInput, domain.MinSlotMaxBookings, domain.MaxSlotMaxBookings)
	}
	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}
	return nil
}

// validateSlotFields валидирует слот после применения обновлений
func validateSlotFields(slot *domain.AvailabilitySlot) error {
	if err := slot.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}
	if err := slot.EndTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid endTime: %v", ErrInvalidInput, err)
	}
	if !slot.StartTime.IsBefore(slot.EndTime) {
		return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}
	if slot.MaxBookings < domain.MinSlotMaxBookings || slot.MaxBookings > domain.MaxSlotMaxBookings {
		return fmt.Errorf("%w: maxBookings must be between %d and %d",
			ErrInvalidInput, domain.MinSlotMaxBookings, domain.MaxSlotMaxBookings)
	}
	if slot.MaxBookings < slot.CurrentBookings {
		return fmt.Errorf("%w: maxBookings cannot be lower than current bookings (%d)",
			ErrInvalidInput, slot.CurrentBookings)
	}
	if slot.Notes != nil && len(*slot.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}
	return nil
}
