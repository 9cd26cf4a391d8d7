package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	bookingRepo "github.com/sparkedu/spark-scheduler/internal/infra/storage/booking"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	programClient "github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
)

// Service сервис для операций над существующими бронированиями:
// чтение, завершение с оценкой, управление составом учеников и
// отметка о расчете. Создание, подтверждение и отмена живут в
// отдельных usecase-пакетах.
type Service struct {
	bookingRepo   BookingRepository
	programClient ProgramDirectoryClient
	publisher     EventPublisher
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	programClient ProgramDirectoryClient,
	publisher EventPublisher,
	txManager TransactionManager,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:   bookingRepo,
		programClient: programClient,
		publisher:     publisher,
		txManager:     txManager,
		timeProvider:  timeProvider,
		logger:        logger,
	}
}

// GetBooking возвращает бронирование с составом учеников.
// Доступ имеют владелец бронирования и операторы программы.
func (s *Service) GetBooking(ctx context.Context, bookingID, actorID int64) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.SchoolUserID != actorID {
		if err := s.checkOperatorAccess(ctx, booking.ProgramID, actorID); err != nil {
			return nil, err
		}
	}

	students, err := s.bookingRepo.ListStudents(ctx, bookingID)
	if err != nil {
		s.logger.Error("GetBooking: failed to list students for booking=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetBooking - list students: %v", ErrInternal, err)
	}

	response := models.FromDomainBooking(booking)
	response.Students = make([]*models.StudentResponse, len(students))
	for i, student := range students {
		response.Students[i] = models.FromDomainStudent(student)
	}

	return response, nil
}

// GetSchoolBookings возвращает бронирования школы.
// Школа видит только собственные бронирования.
func (s *Service) GetSchoolBookings(ctx context.Context, req *models.GetSchoolBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetSchoolBookings: school=%d", req.SchoolUserID)

	if req.SchoolUserID <= 0 {
		return nil, fmt.Errorf("%w: schoolUserID must be positive", ErrInvalidInput)
	}
	if req.SchoolUserID != req.ActorID {
		return nil, fmt.Errorf("%w: user %d cannot view bookings of school %d", ErrAccessDenied, req.ActorID, req.SchoolUserID)
	}

	var status *domain.BookingStatus
	if req.Status != nil {
		parsed, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
		}
		status = &parsed
	}

	bookings, err := s.bookingRepo.GetBySchoolUserID(ctx, req.SchoolUserID, status)
	if err != nil {
		s.logger.Error("GetSchoolBookings: repository error for school=%d: %v", req.SchoolUserID, err)
		return nil, fmt.Errorf("%w: GetSchoolBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// GetProgramBookings возвращает бронирования программы за период.
// Только для операторов программы.
func (s *Service) GetProgramBookings(ctx context.Context, req *models.GetProgramBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetProgramBookings: program=%d", req.ProgramID)

	if req.ProgramID <= 0 {
		return nil, fmt.Errorf("%w: programID must be positive", ErrInvalidInput)
	}
	if req.FromDate != nil && req.ToDate != nil && req.ToDate.Before(*req.FromDate) {
		return nil, fmt.Errorf("%w: toDate must not be before fromDate", ErrInvalidInput)
	}

	if err := s.checkOperatorAccess(ctx, req.ProgramID, req.ActorID); err != nil {
		return nil, err
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
	}

	bookings, err := s.bookingRepo.GetByProgramWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetProgramBookings: repository error for program=%d: %v", req.ProgramID, err)
		return nil, fmt.Errorf("%w: GetProgramBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// Complete переводит подтвержденное бронирование в completed с оценкой.
// Разрешено только операторам программы и только после того, как
// подтвержденная дата визита прошла.
func (s *Service) Complete(ctx context.Context, bookingID int64, req *models.CompleteBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Complete: booking=%d, actor=%d", bookingID, req.ActorID)

	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}

	// Предварительное чтение для проверки прав до транзакции
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkOperatorAccess(ctx, booking.ProgramID, req.ActorID); err != nil {
		return nil, err
	}

	var completed *domain.Booking
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		// Перечитываем бронирование под блокировкой: параллельная
		// отмена не должна молча перезаписываться завершением
		current, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("re-read booking: %w", err)
		}

		if !current.CanBeCompleted() {
			return fmt.Errorf("%w: cannot complete booking in status %q", ErrInvalidTransition, current.Status)
		}
		if !current.HasOccurred(s.timeProvider.Now()) {
			return fmt.Errorf("%w: booking %d is scheduled in the future", ErrNotYetOccurred, bookingID)
		}

		if err := s.bookingRepo.Complete(ctx, bookingID, req.Rating, req.Feedback); err != nil {
			return fmt.Errorf("complete booking: %w", err)
		}

		current.Status = domain.StatusCompleted
		current.Rating = &req.Rating
		current.Feedback = req.Feedback
		completed = current
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotYetOccurred):
			return nil, err
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, fmt.Errorf("%w: booking %d", ErrBookingNotFound, bookingID)
		default:
			s.logger.Error("Complete: transaction failed for booking=%d: %v", bookingID, err)
			return nil, fmt.Errorf("%w: Complete - transaction: %v", ErrInternal, err)
		}
	}

	s.publishEvent(ctx, notifier.EventBookingCompleted, completed)

	s.logger.Info("Complete: booking=%d completed with rating=%d", bookingID, req.Rating)
	return models.FromDomainBooking(completed), nil
}

// AddStudent добавляет ученика в состав бронирования и увеличивает
// количество учеников. Запись и счетчик меняются в одной транзакции.
func (s *Service) AddStudent(ctx context.Context, bookingID int64, req *models.AddStudentRequest) (*models.StudentResponse, error) {
	s.logger.Info("AddStudent: booking=%d, actor=%d", bookingID, req.ActorID)

	if err := validateAddStudent(req); err != nil {
		return nil, err
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.SchoolUserID != req.ActorID {
		return nil, fmt.Errorf("%w: user %d is not the owner of booking %d", ErrAccessDenied, req.ActorID, bookingID)
	}
	if !booking.CanManageStudents() {
		return nil, fmt.Errorf("%w: roster is frozen for booking in status %q", ErrInvalidTransition, booking.Status)
	}

	program, err := s.programClient.GetProgram(ctx, booking.ProgramID)
	if err != nil {
		if errors.Is(err, programClient.ErrProgramNotFound) {
			return nil, fmt.Errorf("%w: program %d", ErrProgramNotFound, booking.ProgramID)
		}
		s.logger.Error("AddStudent: program directory error for program=%d: %v", booking.ProgramID, err)
		return nil, fmt.Errorf("%w: AddStudent - program directory: %v", ErrInternal, err)
	}
	if booking.StudentCount+1 > program.MaxStudents {
		return nil, fmt.Errorf("%w: program %d allows at most %d students", ErrCapacityExceeded, booking.ProgramID, program.MaxStudents)
	}

	var created *domain.BookingStudent
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		// Перечитываем бронирование под блокировкой: счетчик считается
		// от заблокированной строки, а не от чтения вне транзакции
		current, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("re-read booking: %w", err)
		}

		if !current.CanManageStudents() {
			return fmt.Errorf("%w: roster is frozen for booking in status %q", ErrInvalidTransition, current.Status)
		}
		if current.StudentCount+1 > program.MaxStudents {
			return fmt.Errorf("%w: program %d allows at most %d students", ErrCapacityExceeded, booking.ProgramID, program.MaxStudents)
		}

		created, err = s.bookingRepo.AddStudent(ctx, &domain.BookingStudent{
			BookingID:       bookingID,
			Name:            req.Name,
			GradeLevel:      req.GradeLevel,
			GuardianContact: req.GuardianContact,
		})
		if err != nil {
			return fmt.Errorf("add student: %w", err)
		}

		if err := s.bookingRepo.UpdateStudentCount(ctx, bookingID, current.StudentCount+1); err != nil {
			return fmt.Errorf("update student count: %w", err)
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrInvalidTransition):
			return nil, err
		default:
			s.logger.Error("AddStudent: transaction failed for booking=%d: %v", bookingID, err)
			return nil, fmt.Errorf("%w: AddStudent - transaction: %v", ErrInternal, err)
		}
	}

	s.logger.Info("AddStudent: added student=%d to booking=%d", created.ID, bookingID)
	return models.FromDomainStudent(created), nil
}

// RemoveStudent удаляет ученика из состава бронирования и уменьшает
// количество учеников. Счетчик не опускается ниже нуля.
func (s *Service) RemoveStudent(ctx context.Context, bookingID int64, req *models.RemoveStudentRequest) error {
	s.logger.Info("RemoveStudent: booking=%d, student=%d, actor=%d", bookingID, req.StudentID, req.ActorID)

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.SchoolUserID != req.ActorID {
		return fmt.Errorf("%w: user %d is not the owner of booking %d", ErrAccessDenied, req.ActorID, bookingID)
	}
	if !booking.CanManageStudents() {
		return fmt.Errorf("%w: roster is frozen for booking in status %q", ErrInvalidTransition, booking.Status)
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		// Перечитываем бронирование под блокировкой, как в AddStudent
		current, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("re-read booking: %w", err)
		}

		if !current.CanManageStudents() {
			return fmt.Errorf("%w: roster is frozen for booking in status %q", ErrInvalidTransition, current.Status)
		}

		if err := s.bookingRepo.DeleteStudent(ctx, bookingID, req.StudentID); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}

		newCount := current.StudentCount - 1
		if newCount < 0 {
			newCount = 0
		}
		if err := s.bookingRepo.UpdateStudentCount(ctx, bookingID, newCount); err != nil {
			return fmt.Errorf("update student count: %w", err)
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTransition):
			return err
		case errors.Is(err, bookingRepo.ErrStudentNotFound):
			return fmt.Errorf("%w: student %d in booking %d", ErrStudentNotFound, req.StudentID, bookingID)
		default:
			s.logger.Error("RemoveStudent: transaction failed for booking=%d: %v", bookingID, err)
			return fmt.Errorf("%w: RemoveStudent - transaction: %v", ErrInternal, err)
		}
	}

	s.logger.Info("RemoveStudent: removed student=%d from booking=%d", req.StudentID, bookingID)
	return nil
}

// RecordPaymentSettled отмечает бронирование как оплаченное.
// Вызывается платежным сервисом через внутренний API, поэтому
// проверки актора здесь нет.
func (s *Service) RecordPaymentSettled(ctx context.Context, bookingID int64) error {
	s.logger.Info("RecordPaymentSettled: booking=%d", bookingID)

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == domain.StatusCancelled {
		return fmt.Errorf("%w: cannot settle payment for cancelled booking %d", ErrInvalidTransition, bookingID)
	}

	if err := s.bookingRepo.SetPaymentSettled(ctx, bookingID); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return fmt.Errorf("%w: booking %d", ErrBookingNotFound, bookingID)
		}
		s.logger.Error("RecordPaymentSettled: repository error for booking=%d: %v", bookingID, err)
		return fmt.Errorf("%w: RecordPaymentSettled - repository error: %v", ErrInternal, err)
	}

	return nil
}

func (s *Service) getBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	if bookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrBookingNotFound, bookingID)
		}
		s.logger.Error("getBooking: repository error for booking=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: getBooking - repository error: %v", ErrInternal, err)
	}

	return booking, nil
}

// checkOperatorAccess проверяет, что пользователь является оператором программы
func (s *Service) checkOperatorAccess(ctx context.Context, programID, actorID int64) error {
	program, err := s.programClient.GetProgram(ctx, programID)
	if err != nil {
		if errors.Is(err, programClient.ErrProgramNotFound) {
			return fmt.Errorf("%w: program %d", ErrProgramNotFound, programID)
		}
		s.logger.Error("checkOperatorAccess: program directory error for program=%d: %v", programID, err)
		return fmt.Errorf("%w: checkOperatorAccess - program directory: %v", ErrInternal, err)
	}

	if !program.HasOperator(actorID) {
		s.logger.Warn("checkOperatorAccess: user=%d is not an operator of program=%d", actorID, programID)
		return fmt.Errorf("%w: user %d is not an operator of program %d", ErrAccessDenied, actorID, programID)
	}

	return nil
}

// publishEvent публикует событие жизненного цикла после изменения статуса.
// Ошибка публикации логируется и не прерывает операцию.
func (s *Service) publishEvent(ctx context.Context, event notifier.Event, booking *domain.Booking) {
	payload := notifier.BookingEvent{
		BookingID:    booking.ID,
		Reference:    booking.Reference,
		ProgramID:    booking.ProgramID,
		SchoolUserID: booking.SchoolUserID,
		Status:       string(booking.Status),
		StudentCount: booking.StudentCount,
		TotalPrice:   booking.TotalPrice(),
		OccurredAt:   s.timeProvider.Now(),
	}

	if err := s.publisher.Publish(ctx, event, payload); err != nil {
		s.logger.Error("publishEvent: failed to publish %s for booking=%d: %v", event, booking.ID, err)
	}
}

func validateAddStudent(req *models.AddStudentRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: student name is required", ErrInvalidInput)
	}
	if len(req.Name) > domain.MaxStudentNameLength {
		return fmt.Errorf("%w: student name exceeds %d characters", ErrInvalidInput, domain.MaxStudentNameLength)
	}
	if len(req.GradeLevel) > domain.MaxGradeLevelLength {
		return fmt.Errorf("%w: grade level exceeds %d characters", ErrInvalidInput, domain.MaxGradeLevelLength)
	}
	if len(req.GuardianContact) > domain.MaxContactLength {
		return fmt.Errorf("%w: guardian contact exceeds %d characters", ErrInvalidInput, domain.MaxContactLength)
	}
	return nil
}
