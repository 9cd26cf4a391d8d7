package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	bookingStore "github.com/sparkedu/spark-scheduler/internal/infra/storage/booking"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	"github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/internal/service/bookings/models"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
	students map[int64][]*domain.BookingStudent
	nextID   int64
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{
		bookings: make(map[int64]*domain.Booking),
		students: make(map[int64][]*domain.BookingStudent),
	}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	booking, ok := r.bookings[id]
	if !ok {
		return nil, bookingStore.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (r *fakeBookingRepo) GetBySchoolUserID(_ context.Context, schoolUserID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range r.bookings {
		if b.SchoolUserID != schoolUserID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (r *fakeBookingRepo) GetByProgramWithFilter(_ context.Context, filter domain.ProgramBookingsFilter) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range r.bookings {
		if b.ProgramID != filter.ProgramID {
			continue
		}
		if b.Status == domain.StatusCancelled && !filter.IncludeCancelled && filter.Status == nil {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (r *fakeBookingRepo) Complete(_ context.Context, id int64, rating int, feedback *string) error {
	booking, ok := r.bookings[id]
	if !ok {
		return bookingStore.ErrBookingNotFound
	}
	booking.Status = domain.StatusCompleted
	booking.Rating = &rating
	booking.Feedback = feedback
	return nil
}

func (r *fakeBookingRepo) UpdateStudentCount(_ context.Context, id int64, count int) error {
	booking, ok := r.bookings[id]
	if !ok {
		return bookingStore.ErrBookingNotFound
	}
	booking.StudentCount = count
	return nil
}

func (r *fakeBookingRepo) SetPaymentSettled(_ context.Context, id int64) error {
	booking, ok := r.bookings[id]
	if !ok {
		return bookingStore.ErrBookingNotFound
	}
	now := time.Now()
	booking.PaymentSettledAt = &now
	return nil
}

func (r *fakeBookingRepo) AddStudent(_ context.Context, student *domain.BookingStudent) (*domain.BookingStudent, error) {
	r.nextID++
	created := *student
	created.ID = r.nextID
	r.students[student.BookingID] = append(r.students[student.BookingID], &created)
	return &created, nil
}

func (r *fakeBookingRepo) ListStudents(_ context.Context, bookingID int64) ([]*domain.BookingStudent, error) {
	return r.students[bookingID], nil
}

func (r *fakeBookingRepo) DeleteStudent(_ context.Context, bookingID, studentID int64) error {
	roster := r.students[bookingID]
	for i, student := range roster {
		if student.ID == studentID {
			r.students[bookingID] = append(roster[:i], roster[i+1:]...)
			return nil
		}
	}
	return bookingStore.ErrStudentNotFound
}

type fakeProgramClient struct {
	program *programdirectory.Program
	err     error
}

func (c *fakeProgramClient) GetProgram(_ context.Context, _ int64) (*programdirectory.Program, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.program, nil
}

type fakePublisher struct {
	events []notifier.Event
}

func (p *fakePublisher) Publish(_ context.Context, event notifier.Event, _ notifier.BookingEvent) error {
	p.events = append(p.events, event)
	return nil
}

type fakeTxManager struct {
	// before выполняется перед транзакцией, имитируя конкурентное
	// изменение между внешним чтением и началом транзакции
	before func()
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.before != nil {
		m.before()
	}
	return fn(ctx)
}

type fixedTimeProvider struct {
	now time.Time
}

func (p *fixedTimeProvider) Now() time.Time {
	return p.now
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func operatedProgram() *programdirectory.Program {
	return &programdirectory.Program{
		ID:          1,
		MaxStudents: 25,
		IsActive:    true,
		OperatorIDs: []int64{42},
	}
}

func newTestService(repo *fakeBookingRepo, client *fakeProgramClient, publisher *fakePublisher) *Service {
	return NewService(repo, client, publisher, &fakeTxManager{}, &fixedTimeProvider{now: testNow}, noopLogger{})
}

func pendingBooking(id int64) *domain.Booking {
	return &domain.Booking{
		ID:            id,
		Reference:     "ref-1",
		ProgramID:     1,
		SchoolUserID:  10,
		RequestedDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		RequestedTime: types.TimeString("10:00"),
		StudentCount:  20,
		Status:        domain.StatusPending,
	}
}

func occurredBooking(id int64) *domain.Booking {
	booking := pendingBooking(id)
	booking.Status = domain.StatusConfirmed
	past := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	pastTime := types.TimeString("10:00")
	booking.ConfirmedDate = &past
	booking.ConfirmedTime = &pastTime
	return booking
}

func TestGetBooking_Access(t *testing.T) {
	repo := newFakeBookingRepo(pendingBooking(1))
	repo.students[1] = []*domain.BookingStudent{
		{ID: 1, BookingID: 1, Name: "Петров Алексей", GradeLevel: "7А"},
	}
	svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		resp, err := svc.GetBooking(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.ID)
		require.Len(t, resp.Students, 1)
		assert.Equal(t, "Петров Алексей", resp.Students[0].Name)
	})

	t.Run("operator", func(t *testing.T) {
		_, err := svc.GetBooking(ctx, 1, 42)
		assert.NoError(t, err)
	})

	t.Run("stranger", func(t *testing.T) {
		_, err := svc.GetBooking(ctx, 1, 99)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestGetSchoolBookings(t *testing.T) {
	first := pendingBooking(1)
	second := pendingBooking(2)
	second.Status = domain.StatusConfirmed
	repo := newFakeBookingRepo(first, second)
	svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})
	ctx := context.Background()

	resp, err := svc.GetSchoolBookings(ctx, &models.GetSchoolBookingsRequest{SchoolUserID: 10, ActorID: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	status := "confirmed"
	resp, err = svc.GetSchoolBookings(ctx, &models.GetSchoolBookingsRequest{SchoolUserID: 10, ActorID: 10, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	// Чужие бронирования школа не видит
	_, err = svc.GetSchoolBookings(ctx, &models.GetSchoolBookingsRequest{SchoolUserID: 10, ActorID: 11})
	assert.ErrorIs(t, err, ErrAccessDenied)

	bad := "unknown"
	_, err = svc.GetSchoolBookings(ctx, &models.GetSchoolBookingsRequest{SchoolUserID: 10, ActorID: 10, Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetProgramBookings_OperatorOnly(t *testing.T) {
	repo := newFakeBookingRepo(pendingBooking(1))
	svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})
	ctx := context.Background()

	resp, err := svc.GetProgramBookings(ctx, &models.GetProgramBookingsRequest{ProgramID: 1, ActorID: 42})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	_, err = svc.GetProgramBookings(ctx, &models.GetProgramBookingsRequest{ProgramID: 1, ActorID: 10})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestComplete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := newFakeBookingRepo(occurredBooking(1))
		publisher := &fakePublisher{}
		svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, publisher)

		feedback := "Отличная программа"
		resp, err := svc.Complete(context.Background(), 1, &models.CompleteBookingRequest{
			ActorID: 42, Rating: 5, Feedback: &feedback,
		})
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusCompleted), resp.Status)
		require.NotNil(t, resp.Rating)
		assert.Equal(t, 5, *resp.Rating)

		require.Len(t, publisher.events, 1)
		assert.Equal(t, notifier.EventBookingCompleted, publisher.events[0])
	})

	t.Run("rating out of bounds", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(occurredBooking(1)), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.Complete(context.Background(), 1, &models.CompleteBookingRequest{ActorID: 42, Rating: 0})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Complete(context.Background(), 1, &models.CompleteBookingRequest{ActorID: 42, Rating: 6})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("pending cannot be completed", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(pendingBooking(1)), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.Complete(context.Background(), 1, &models.CompleteBookingRequest{ActorID: 42, Rating: 4})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("future visit cannot be completed", func(t *testing.T) {
		booking := occurredBooking(1)
		future := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		booking.ConfirmedDate = &future
		svc := newTestService(newFakeBookingRepo(booking), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.Complete(context.Background(), 1, &models.CompleteBookingRequest{ActorID: 42, Rating: 4})
		assert.ErrorIs(t, err, ErrNotYetOccurred)
	})

	t.Run("only operator", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(occurredBooking(1)), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.Complete(context.Background(), 1, &models.CompleteBookingRequest{ActorID: 10, Rating: 4})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

// Отмена, закоммиченная между внешним чтением и транзакцией завершения,
// не должна перезаписываться переходом в completed
func TestComplete_ConcurrentCancelRejected(t *testing.T) {
	repo := newFakeBookingRepo(occurredBooking(1))
	publisher := &fakePublisher{}
	txManager := &fakeTxManager{before: func() {
		reason := "школа отменила визит"
		repo.bookings[1].Status = domain.StatusCancelled
		repo.bookings[1].CancellationReason = &reason
	}}
	svc := NewService(repo, &fakeProgramClient{program: operatedProgram()}, publisher, txManager, &fixedTimeProvider{now: testNow}, noopLogger{})

	_, err := svc.Complete(context.Background(), 1, &models.CompleteBookingRequest{ActorID: 42, Rating: 5})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Бронирование осталось отмененным, событие не публиковалось
	assert.Equal(t, domain.StatusCancelled, repo.bookings[1].Status)
	assert.Empty(t, publisher.events)
}

func TestAddStudent(t *testing.T) {
	t.Run("success increments count", func(t *testing.T) {
		repo := newFakeBookingRepo(pendingBooking(1))
		svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		resp, err := svc.AddStudent(context.Background(), 1, &models.AddStudentRequest{
			ActorID: 10, Name: "Петров Алексей", GradeLevel: "7А",
		})
		require.NoError(t, err)
		assert.Equal(t, "Петров Алексей", resp.Name)
		assert.Equal(t, 21, repo.bookings[1].StudentCount)
	})

	t.Run("program capacity exceeded", func(t *testing.T) {
		booking := pendingBooking(1)
		booking.StudentCount = 25
		svc := newTestService(newFakeBookingRepo(booking), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.AddStudent(context.Background(), 1, &models.AddStudentRequest{ActorID: 10, Name: "Лишний"})
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("only owner manages roster", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(pendingBooking(1)), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.AddStudent(context.Background(), 1, &models.AddStudentRequest{ActorID: 42, Name: "Петров"})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("roster frozen after cancellation", func(t *testing.T) {
		booking := pendingBooking(1)
		booking.Status = domain.StatusCancelled
		svc := newTestService(newFakeBookingRepo(booking), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.AddStudent(context.Background(), 1, &models.AddStudentRequest{ActorID: 10, Name: "Петров"})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("empty name", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(pendingBooking(1)), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		_, err := svc.AddStudent(context.Background(), 1, &models.AddStudentRequest{ActorID: 10})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

// Счетчик учеников считается от строки, перечитанной в транзакции,
// поэтому конкурентное добавление не теряется
func TestAddStudent_ConcurrentAddNotLost(t *testing.T) {
	repo := newFakeBookingRepo(pendingBooking(1))
	txManager := &fakeTxManager{before: func() {
		repo.bookings[1].StudentCount++
		repo.students[1] = append(repo.students[1], &domain.BookingStudent{ID: 100, BookingID: 1, Name: "Сидоров"})
	}}
	svc := NewService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{}, txManager, &fixedTimeProvider{now: testNow}, noopLogger{})

	_, err := svc.AddStudent(context.Background(), 1, &models.AddStudentRequest{ActorID: 10, Name: "Петров"})
	require.NoError(t, err)

	// Оба добавления отражены и в составе, и в счетчике
	assert.Equal(t, 22, repo.bookings[1].StudentCount)
	assert.Len(t, repo.students[1], 2)
}

// Проверка вместимости повторяется внутри транзакции: конкурентное
// добавление у самой границы не дает превысить максимум программы
func TestAddStudent_CapacityRecheckedInTransaction(t *testing.T) {
	booking := pendingBooking(1)
	booking.StudentCount = 24
	repo := newFakeBookingRepo(booking)
	txManager := &fakeTxManager{before: func() {
		repo.bookings[1].StudentCount++
		repo.students[1] = append(repo.students[1], &domain.BookingStudent{ID: 100, BookingID: 1, Name: "Сидоров"})
	}}
	svc := NewService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{}, txManager, &fixedTimeProvider{now: testNow}, noopLogger{})

	_, err := svc.AddStudent(context.Background(), 1, &models.AddStudentRequest{ActorID: 10, Name: "Лишний"})
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	assert.Equal(t, 25, repo.bookings[1].StudentCount)
	assert.Len(t, repo.students[1], 1)
}

func TestRemoveStudent(t *testing.T) {
	t.Run("success decrements count", func(t *testing.T) {
		repo := newFakeBookingRepo(pendingBooking(1))
		repo.students[1] = []*domain.BookingStudent{{ID: 7, BookingID: 1, Name: "Петров"}}
		svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		err := svc.RemoveStudent(context.Background(), 1, &models.RemoveStudentRequest{ActorID: 10, StudentID: 7})
		require.NoError(t, err)
		assert.Equal(t, 19, repo.bookings[1].StudentCount)
		assert.Empty(t, repo.students[1])
	})

	t.Run("count does not go negative", func(t *testing.T) {
		booking := pendingBooking(1)
		booking.StudentCount = 0
		repo := newFakeBookingRepo(booking)
		repo.students[1] = []*domain.BookingStudent{{ID: 7, BookingID: 1, Name: "Петров"}}
		svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		err := svc.RemoveStudent(context.Background(), 1, &models.RemoveStudentRequest{ActorID: 10, StudentID: 7})
		require.NoError(t, err)
		assert.Equal(t, 0, repo.bookings[1].StudentCount)
	})

	t.Run("student not found", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(pendingBooking(1)), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		err := svc.RemoveStudent(context.Background(), 1, &models.RemoveStudentRequest{ActorID: 10, StudentID: 404})
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})
}

// Удаление тоже пересчитывает счетчик от перечитанной строки
func TestRemoveStudent_ConcurrentAddNotLost(t *testing.T) {
	repo := newFakeBookingRepo(pendingBooking(1))
	repo.students[1] = []*domain.BookingStudent{{ID: 7, BookingID: 1, Name: "Петров"}}
	txManager := &fakeTxManager{before: func() {
		repo.bookings[1].StudentCount++
		repo.students[1] = append(repo.students[1], &domain.BookingStudent{ID: 100, BookingID: 1, Name: "Сидоров"})
	}}
	svc := NewService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{}, txManager, &fixedTimeProvider{now: testNow}, noopLogger{})

	err := svc.RemoveStudent(context.Background(), 1, &models.RemoveStudentRequest{ActorID: 10, StudentID: 7})
	require.NoError(t, err)

	// 20 учеников, конкурентное добавление и удаление: снова 20
	assert.Equal(t, 20, repo.bookings[1].StudentCount)
	assert.Len(t, repo.students[1], 1)
}

func TestRecordPaymentSettled(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := newFakeBookingRepo(occurredBooking(1))
		svc := newTestService(repo, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		require.NoError(t, svc.RecordPaymentSettled(context.Background(), 1))
		assert.NotNil(t, repo.bookings[1].PaymentSettledAt)
	})

	t.Run("cancelled booking cannot be settled", func(t *testing.T) {
		booking := pendingBooking(1)
		booking.Status = domain.StatusCancelled
		svc := newTestService(newFakeBookingRepo(booking), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		err := svc.RecordPaymentSettled(context.Background(), 1)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestService(newFakeBookingRepo(), &fakeProgramClient{program: operatedProgram()}, &fakePublisher{})

		err := svc.RecordPaymentSettled(context.Background(), 404)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}
