package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	programClient "github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
)

// UseCase use case создания бронирования.
// Бронирование создается в статусе pending без привязки к слоту;
// слот и его вместимость затрагиваются только при подтверждении.
type UseCase struct {
	bookingRepo   BookingRepository
	programClient ProgramDirectoryClient
	publisher     EventPublisher
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	programClient ProgramDirectoryClient,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		programClient: programClient,
		publisher:     publisher,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: school=%d, program=%d, date=%s, time=%s, students=%d",
		req.SchoolUserID, req.ProgramID, req.RequestedDate.Format(domain.DateFormat), req.RequestedTime, req.StudentCount)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Дата визита не может быть в прошлом
	if err := validateDate(req.RequestedDate, uc.timeProvider.Now()); err != nil {
		uc.logger.Warn("CreateBooking: date validation failed: %v", err)
		return nil, err
	}

	// 3. Получаем программу из каталога
	program, err := uc.programClient.GetProgram(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, programClient.ErrProgramNotFound) {
			uc.logger.Warn("CreateBooking: program id=%d not found", req.ProgramID)
			return nil, ErrProgramNotFound
		}
		uc.logger.Error("CreateBooking: failed to get program id=%d: %v", req.ProgramID, err)
		return nil, fmt.Errorf("%w: failed to get program: %v", ErrInternal, err)
	}

	if !program.IsActive {
		uc.logger.Warn("CreateBooking: program id=%d is inactive", req.ProgramID)
		return nil, ErrProgramInactive
	}

	// 4. Количество учеников ограничено вместимостью программы
	if req.StudentCount > program.MaxStudents {
		uc.logger.Warn("CreateBooking: studentCount=%d exceeds program max=%d", req.StudentCount, program.MaxStudents)
		return nil, fmt.Errorf("%w: program %d allows at most %d students", ErrCapacityExceeded, req.ProgramID, program.MaxStudents)
	}

	booking := &domain.Booking{
		Reference:     uuid.NewString(),
		ProgramID:     req.ProgramID,
		SchoolUserID:  req.SchoolUserID,
		RequestedDate: req.RequestedDate,
		RequestedTime: req.RequestedTime,
		StudentCount:  req.StudentCount,
		Status:        domain.StatusPending,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		// Денормализация данных программы для истории
		ProgramTitle:    program.Title,
		PricePerStudent: program.PricePerStudent,
		Notes:           req.Notes,
	}

	var result *domain.Booking

	// 5. Бронирование и начальный состав учеников создаются в одной транзакции
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		for _, student := range req.Students {
			if _, err := uc.bookingRepo.AddStudent(txCtx, &domain.BookingStudent{
				BookingID:       created.ID,
				Name:            student.Name,
				GradeLevel:      student.GradeLevel,
				GuardianContact: student.GuardianContact,
			}); err != nil {
				uc.logger.Error("CreateBooking: failed to add student to booking id=%d: %v", created.ID, err)
				return fmt.Errorf("%w: failed to add student: %v", ErrInternal, err)
			}
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d, reference=%s", result.ID, result.Reference)

	// 6. Событие публикуется после коммита; ошибка публикации не
	// откатывает бронирование
	uc.publishCreated(ctx, result)

	return &Response{
		ID:              result.ID,
		Reference:       result.Reference,
		ProgramID:       result.ProgramID,
		SchoolUserID:    result.SchoolUserID,
		RequestedDate:   result.RequestedDate.Format(domain.DateFormat),
		RequestedTime:   result.RequestedTime,
		StudentCount:    result.StudentCount,
		Status:          string(result.Status),
		ProgramTitle:    result.ProgramTitle,
		PricePerStudent: result.PricePerStudent,
		TotalPrice:      result.TotalPrice(),
		Notes:           result.Notes,
		CreatedAt:       result.CreatedAt,
	}, nil
}

func (uc *UseCase) publishCreated(ctx context.Context, booking *domain.Booking) {
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

	if err := uc.publisher.Publish(ctx, notifier.EventBookingCreated, payload); err != nil {
		uc.logger.Error("CreateBooking: failed to publish %s for booking id=%d: %v",
			notifier.EventBookingCreated, booking.ID, err)
	}
}
