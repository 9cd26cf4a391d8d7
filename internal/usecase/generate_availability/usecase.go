package generate_availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	programClient "github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
)

// UseCase use case пакетной генерации слотов доступности.
// Применяет шаблоны времени к каждому дню диапазона; комбинации,
// пересекающиеся с существующими слотами, молча пропускаются.
// Повторный запуск с теми же параметрами не создает дубликатов.
type UseCase struct {
	slotRepo      SlotRepository
	programClient ProgramDirectoryClient
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	programClient ProgramDirectoryClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:      slotRepo,
		programClient: programClient,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет пакетную генерацию слотов.
// Использует сериализуемую транзакцию: существующие слоты каждого дня
// читаются с блокировкой, чтобы параллельная генерация не создала
// пересекающихся слотов.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GenerateAvailability: program=%d, range=%s..%s, templates=%d",
		req.ProgramID, req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat), len(req.Templates))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GenerateAvailability: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем программу и проверяем права оператора
	program, err := uc.programClient.GetProgram(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, programClient.ErrProgramNotFound) {
			uc.logger.Warn("GenerateAvailability: program id=%d not found", req.ProgramID)
			return nil, ErrProgramNotFound
		}
		uc.logger.Error("GenerateAvailability: failed to get program id=%d: %v", req.ProgramID, err)
		return nil, fmt.Errorf("%w: failed to get program: %v", ErrInternal, err)
	}

	if !program.HasOperator(req.ActorID) {
		uc.logger.Warn("GenerateAvailability: user=%d is not an operator of program=%d", req.ActorID, req.ProgramID)
		return nil, ErrAccessDenied
	}

	if !program.IsActive {
		uc.logger.Warn("GenerateAvailability: program id=%d is inactive", req.ProgramID)
		return nil, ErrProgramInactive
	}

	maxBookings := domain.DefaultSlotMaxBookings
	if req.MaxBookings != nil {
		maxBookings = *req.MaxBookings
	}

	startDate := truncateToDay(req.StartDate)
	endDate := truncateToDay(req.EndDate)

	var response *Response

	// 3. Генерируем слоты в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		result := &Response{Created: []*SlotSummary{}}

		for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
			if req.SkipWeekends && isWeekend(day) {
				continue
			}

			// Существующие слоты дня читаются с блокировкой (FOR UPDATE)
			existing, err := uc.slotRepo.ListByProgram(txCtx, domain.SlotFilter{
				ProgramID: req.ProgramID,
				FromDate:  &day,
				ToDate:    &day,
			})
			if err != nil {
				uc.logger.Error("GenerateAvailability: failed to list slots for %s: %v", day.Format(domain.DateFormat), err)
				return fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
			}

			for _, tpl := range req.Templates {
				// Конфликт с существующим или уже принятым в этом запуске
				// слотом не является ошибкой, комбинация пропускается
				if hasOverlap(tpl, existing) {
					result.SkippedCount++
					continue
				}

				created, err := uc.slotRepo.Create(txCtx, &domain.AvailabilitySlot{
					ProgramID:   req.ProgramID,
					SlotDate:    day,
					StartTime:   tpl.Start,
					EndTime:     tpl.End,
					MaxBookings: maxBookings,
					IsAvailable: true,
					Notes:       req.Notes,
				})
				if err != nil {
					uc.logger.Error("GenerateAvailability: failed to create slot %s %s: %v",
						day.Format(domain.DateFormat), tpl.Start, err)
					return fmt.Errorf("%w: failed to create slot: %v", ErrInternal, err)
				}

				existing = append(existing, created)
				result.CreatedCount++
				result.Created = append(result.Created, &SlotSummary{
					ID:        created.ID,
					SlotDate:  created.SlotDate.Format(domain.DateFormat),
					StartTime: created.StartTime,
					EndTime:   created.EndTime,
				})
			}
		}

		response = result
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("GenerateAvailability: program=%d, created=%d, skipped=%d",
		req.ProgramID, response.CreatedCount, response.SkippedCount)

	return response, nil
}
