package cancel_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	bookingStore "github.com/sparkedu/spark-scheduler/internal/infra/storage/booking"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	programClient "github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/pkg/txmanager"
)

// UseCase use case отмены бронирования. Отменить может владелец
// или оператор программы. Для подтвержденного бронирования место
// в слоте освобождается в той же транзакции.
type UseCase struct {
	bookingRepo   BookingRepository
	slotRepo      SlotRepository
	programClient ProgramDirectoryClient
	publisher     EventPublisher
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	programClient ProgramDirectoryClient,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		slotRepo:      slotRepo,
		programClient: programClient,
		publisher:     publisher,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет use case отмены бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelBooking: booking=%d, actor=%d", req.BookingID, req.ActorID)

	// 1. Валидация входных данных
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if req.ActorID <= 0 {
		return nil, fmt.Errorf("%w: actorID must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrInvalidInput)
	}
	if len(req.Reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	// 2. Получаем бронирование и проверяем права до транзакции
	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingStore.ErrBookingNotFound) {
			uc.logger.Warn("CancelBooking: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("CancelBooking: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	if err := uc.checkAccess(ctx, booking, req.ActorID); err != nil {
		return nil, err
	}

	var result *domain.Booking
	var releasedSlotID *int64

	// 3. Отмена и освобождение места в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Перечитываем бронирование внутри транзакции (FOR UPDATE)
		current, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			return fmt.Errorf("%w: failed to re-read booking: %v", ErrInternal, err)
		}

		if !current.CanBeCancelled() {
			uc.logger.Warn("CancelBooking: booking id=%d is in status %q", req.BookingID, current.Status)
			return fmt.Errorf("%w: cannot cancel booking in status %q", ErrInvalidTransition, current.Status)
		}

		// 3.2. Подтвержденное бронирование освобождает место в слоте
		if current.Status == domain.StatusConfirmed && current.SlotID != nil {
			if err := uc.slotRepo.Release(txCtx, *current.SlotID, 1); err != nil {
				return fmt.Errorf("%w: failed to release slot: %v", ErrInternal, err)
			}
			releasedSlotID = current.SlotID
		}

		// 3.3. Переводим бронирование в cancelled
		if err := uc.bookingRepo.Cancel(txCtx, req.BookingID, req.Reason); err != nil {
			return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
		}

		current.Status = domain.StatusCancelled
		current.CancellationReason = &req.Reason

		result = current
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrSerializationFailure) {
			uc.logger.Warn("CancelBooking: serialization failure for booking id=%d", req.BookingID)
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	if releasedSlotID != nil {
		uc.logger.Info("CancelBooking: booking id=%d cancelled, released slot id=%d", result.ID, *releasedSlotID)
	} else {
		uc.logger.Info("CancelBooking: booking id=%d cancelled", result.ID)
	}

	// 4. Событие публикуется после коммита
	uc.publishCancelled(ctx, result)

	return &Response{
		ID:                 result.ID,
		Reference:          result.Reference,
		Status:             string(result.Status),
		CancellationReason: req.Reason,
		ReleasedSlotID:     releasedSlotID,
	}, nil
}

// checkAccess проверяет, что актор является владельцем бронирования
// или оператором программы
func (uc *UseCase) checkAccess(ctx context.Context, booking *domain.Booking, actorID int64) error {
	if booking.SchoolUserID == actorID {
		return nil
	}

	program, err := uc.programClient.GetProgram(ctx, booking.ProgramID)
	if err != nil {
		if errors.Is(err, programClient.ErrProgramNotFound) {
			// Программа удалена из каталога, оператора определить нельзя
			uc.logger.Warn("CancelBooking: program id=%d not found for access check", booking.ProgramID)
			return ErrAccessDenied
		}
		uc.logger.Error("CancelBooking: failed to get program id=%d: %v", booking.ProgramID, err)
		return fmt.Errorf("%w: failed to get program: %v", ErrInternal, err)
	}

	if !program.HasOperator(actorID) {
		uc.logger.Warn("CancelBooking: user=%d has no access to booking id=%d", actorID, booking.ID)
		return ErrAccessDenied
	}

	return nil
}

func (uc *UseCase) publishCancelled(ctx context.Context, booking *domain.Booking) {
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

	if err := uc.publisher.Publish(ctx, notifier.EventBookingCancelled, payload); err != nil {
		uc.logger.Error("CancelBooking: failed to publish %s for booking id=%d: %v",
			notifier.EventBookingCancelled, booking.ID, err)
	}
}
