package confirm_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	bookingStore "github.com/sparkedu/spark-scheduler/internal/infra/storage/booking"
	slotRepo "github.com/sparkedu/spark-scheduler/internal/infra/storage/slot"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	programClient "github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/pkg/txmanager"
)

// UseCase use case подтверждения бронирования оператором.
// Резервирование места в слоте и смена статуса выполняются в одной
// сериализуемой транзакции: место либо занято вместе с подтверждением,
// либо не занято вовсе.
type UseCase struct {
	bookingRepo         BookingRepository
	slotRepo            SlotRepository
	programClient       ProgramDirectoryClient
	publisher           EventPublisher
	txManager           TransactionManager
	timeProvider        TimeProvider
	defaultSlotCapacity int
	logger              Logger
}

// NewUseCase создает новый экземпляр use case.
// defaultSlotCapacity задает вместимость слотов, создаваемых
// автоматически при подтверждении без существующего слота.
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	programClient ProgramDirectoryClient,
	publisher EventPublisher,
	txManager TransactionManager,
	defaultSlotCapacity int,
	logger Logger,
) *UseCase {
	if defaultSlotCapacity < domain.MinSlotMaxBookings {
		defaultSlotCapacity = domain.DefaultSlotMaxBookings
	}

	return &UseCase{
		bookingRepo:         bookingRepo,
		slotRepo:            slotRepo,
		programClient:       programClient,
		publisher:           publisher,
		txManager:           txManager,
		timeProvider:        &RealTimeProvider{},
		defaultSlotCapacity: defaultSlotCapacity,
		logger:              logger,
	}
}

// Execute выполняет use case подтверждения бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ConfirmBooking: booking=%d, actor=%d", req.BookingID, req.ActorID)

	// 1. Валидация входных данных
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if req.ActorID <= 0 {
		return nil, fmt.Errorf("%w: actorID must be positive", ErrInvalidInput)
	}
	if req.SlotID != nil && *req.SlotID <= 0 {
		return nil, fmt.Errorf("%w: slotID must be positive", ErrInvalidInput)
	}

	// 2. Получаем бронирование для проверки прав до транзакции
	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingStore.ErrBookingNotFound) {
			uc.logger.Warn("ConfirmBooking: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("ConfirmBooking: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	// 3. Подтверждать бронирование могут только операторы программы
	program, err := uc.programClient.GetProgram(ctx, booking.ProgramID)
	if err != nil {
		if errors.Is(err, programClient.ErrProgramNotFound) {
			uc.logger.Warn("ConfirmBooking: program id=%d not found", booking.ProgramID)
			return nil, ErrProgramNotFound
		}
		uc.logger.Error("ConfirmBooking: failed to get program id=%d: %v", booking.ProgramID, err)
		return nil, fmt.Errorf("%w: failed to get program: %v", ErrInternal, err)
	}

	if !program.HasOperator(req.ActorID) {
		uc.logger.Warn("ConfirmBooking: user=%d is not an operator of program=%d", req.ActorID, booking.ProgramID)
		return nil, ErrAccessDenied
	}

	var result *domain.Booking
	var reservedSlot *domain.AvailabilitySlot

	// 4. Резервирование места и подтверждение в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 4.1. Перечитываем бронирование внутри транзакции (FOR UPDATE)
		current, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			return fmt.Errorf("%w: failed to re-read booking: %v", ErrInternal, err)
		}

		if !current.CanBeConfirmed() {
			uc.logger.Warn("ConfirmBooking: booking id=%d is in status %q", req.BookingID, current.Status)
			return fmt.Errorf("%w: cannot confirm booking in status %q", ErrInvalidTransition, current.Status)
		}

		// 4.2. Подбираем слот
		slot, err := uc.resolveSlot(txCtx, current, program.DurationMinutes, req.SlotID)
		if err != nil {
			return err
		}

		// 4.3. Атомарно занимаем место в слоте
		if err := uc.slotRepo.TryReserve(txCtx, slot.ID, 1); err != nil {
			switch {
			case errors.Is(err, slotRepo.ErrSlotFull):
				uc.logger.Warn("ConfirmBooking: slot id=%d is full", slot.ID)
				return ErrSlotFull
			case errors.Is(err, slotRepo.ErrSlotUnavailable):
				uc.logger.Warn("ConfirmBooking: slot id=%d is unavailable", slot.ID)
				return ErrSlotUnavailable
			case errors.Is(err, slotRepo.ErrSlotNotFound):
				return ErrSlotNotFound
			default:
				return fmt.Errorf("%w: failed to reserve slot: %v", ErrInternal, err)
			}
		}

		// 4.4. Переводим бронирование в confirmed с привязкой к слоту
		if err := uc.bookingRepo.Confirm(txCtx, req.BookingID, slot.ID, slot.SlotDate, slot.StartTime); err != nil {
			return fmt.Errorf("%w: failed to confirm booking: %v", ErrInternal, err)
		}

		current.Status = domain.StatusConfirmed
		current.SlotID = &slot.ID
		current.ConfirmedDate = &slot.SlotDate
		confirmedTime := slot.StartTime
		current.ConfirmedTime = &confirmedTime

		result = current
		reservedSlot = slot
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrSerializationFailure) {
			uc.logger.Warn("ConfirmBooking: serialization failure for booking id=%d", req.BookingID)
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	uc.logger.Info("ConfirmBooking: booking id=%d confirmed into slot id=%d (%d/%d taken)",
		result.ID, reservedSlot.ID, reservedSlot.CurrentBookings+1, reservedSlot.MaxBookings)

	// 5. Событие публикуется после коммита
	uc.publishConfirmed(ctx, result)

	return &Response{
		ID:            result.ID,
		Reference:     result.Reference,
		ProgramID:     result.ProgramID,
		SlotID:        reservedSlot.ID,
		Status:        string(result.Status),
		ConfirmedDate: reservedSlot.SlotDate.Format(domain.DateFormat),
		ConfirmedTime: reservedSlot.StartTime,
		StudentCount:  result.StudentCount,
		TotalPrice:    result.TotalPrice(),
	}, nil
}

// resolveSlot подбирает слот для подтверждения. Явно указанный слот
// проверяется на принадлежность программе. Без явного слота ищется
// слот по запрошенным дате и времени; отсутствующий слот создается
// с длительностью программы и вместимостью по умолчанию, если его
// окно не пересекается с существующими слотами программы.
func (uc *UseCase) resolveSlot(
	ctx context.Context,
	booking *domain.Booking,
	durationMinutes int,
	explicitSlotID *int64,
) (*domain.AvailabilitySlot, error) {
	if explicitSlotID != nil {
		slot, err := uc.slotRepo.GetByID(ctx, *explicitSlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				return nil, ErrSlotNotFound
			}
			return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}

		if slot.ProgramID != booking.ProgramID {
			return nil, fmt.Errorf("%w: slot %d belongs to program %d", ErrSlotMismatch, slot.ID, slot.ProgramID)
		}

		return slot, nil
	}

	slot, err := uc.slotRepo.FindByProgramDateStart(ctx, booking.ProgramID, booking.RequestedDate, booking.RequestedTime)
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, slotRepo.ErrSlotNotFound) {
		return nil, fmt.Errorf("%w: failed to find slot: %v", ErrInternal, err)
	}

	// Слота на запрошенное время нет, создаем его
	endTime, err := booking.RequestedTime.AddMinutes(durationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compute slot end time: %v", ErrInternal, err)
	}

	// Новый слот не должен пересекаться с существующими слотами программы
	overlapping, err := uc.slotRepo.FindOverlapping(ctx, booking.ProgramID, booking.RequestedDate, booking.RequestedTime, endTime, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check slot overlap: %v", ErrInternal, err)
	}
	if len(overlapping) > 0 {
		uc.logger.Warn("ConfirmBooking: requested window %s-%s overlaps slot id=%d",
			booking.RequestedTime, endTime, overlapping[0].ID)
		return nil, fmt.Errorf("%w: window %s-%s overlaps slot %d", ErrSlotConflict,
			booking.RequestedTime, endTime, overlapping[0].ID)
	}

	created, err := uc.slotRepo.Create(ctx, &domain.AvailabilitySlot{
		ProgramID:   booking.ProgramID,
		SlotDate:    booking.RequestedDate,
		StartTime:   booking.RequestedTime,
		EndTime:     endTime,
		MaxBookings: uc.defaultSlotCapacity,
		IsAvailable: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create slot: %v", ErrInternal, err)
	}

	uc.logger.Info("ConfirmBooking: auto-created slot id=%d for program=%d on %s %s",
		created.ID, booking.ProgramID, created.SlotDate.Format(domain.DateFormat), created.StartTime)

	return created, nil
}

func (uc *UseCase) publishConfirmed(ctx context.Context, booking *domain.Booking) {
	payload := notifier.BookingEvent{
		BookingID:    booking.ID,
		Reference:    booking.Reference,
		ProgramID:    booking.ProgramID,
		SchoolUserID: booking.SchoolUserID,
		Status:       string(booking.Status),
		StudentCount: booking.StudentCount,
		TotalPrice:   booking.TotalPrice(),
		OccurredAt:   uc.timeProvider.Now(),
	}

	if err := uc.publisher.Publish(ctx, notifier.EventBookingConfirmed, payload); err != nil {
		uc.logger.Error("ConfirmBooking: failed to publish %s for booking id=%d: %v",
			notifier.EventBookingConfirmed, booking.ID, err)
	}
}
