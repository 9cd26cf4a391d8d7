package cancel_booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	bookingStore "github.com/sparkedu/spark-scheduler/internal/infra/storage/booking"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	"github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/pkg/txmanager"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[int64]*domain.Booking)}
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

func (r *fakeBookingRepo) Cancel(_ context.Context, id int64, reason string) error {
	booking, ok := r.bookings[id]
	if !ok {
		return bookingStore.ErrBookingNotFound
	}
	booking.Status = domain.StatusCancelled
	booking.CancellationReason = &reason
	return nil
}

type fakeSlotRepo struct {
	released map[int64]int
}

func (r *fakeSlotRepo) Release(_ context.Context, id int64, count int) error {
	if r.released == nil {
		r.released = make(map[int64]int)
	}
	r.released[id] += count
	return nil
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
	err error
}

func (m *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func operatedProgram() *programdirectory.Program {
	return &programdirectory.Program{ID: 1, IsActive: true, OperatorIDs: []int64{42}}
}

func pendingBooking(id int64) *domain.Booking {
	return &domain.Booking{
		ID:            id,
		Reference:     "ref-1",
		ProgramID:     1,
		SchoolUserID:  10,
		RequestedDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		RequestedTime: types.TimeString("10:00"),
		StudentCount:  20,
		Status:        domain.StatusPending,
	}
}

func confirmedBooking(id, slotID int64) *domain.Booking {
	booking := pendingBooking(id)
	booking.Status = domain.StatusConfirmed
	booking.SlotID = &slotID
	return booking
}

func newCancelUseCase(bookings *fakeBookingRepo, slots *fakeSlotRepo, publisher *fakePublisher) *UseCase {
	return NewUseCase(bookings, slots, &fakeProgramClient{program: operatedProgram()}, publisher, &fakeTxManager{}, noopLogger{})
}

func TestCancelBooking_ConfirmedReleasesSlot(t *testing.T) {
	bookings := newFakeBookingRepo(confirmedBooking(1, 5))
	slots := &fakeSlotRepo{}
	publisher := &fakePublisher{}
	uc := newCancelUseCase(bookings, slots, publisher)

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 10, Reason: "карантин в школе"})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Equal(t, "карантин в школе", resp.CancellationReason)
	require.NotNil(t, resp.ReleasedSlotID)
	assert.Equal(t, int64(5), *resp.ReleasedSlotID)
	assert.Equal(t, 1, slots.released[5])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, notifier.EventBookingCancelled, publisher.events[0])
}

func TestCancelBooking_PendingDoesNotTouchSlots(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	slots := &fakeSlotRepo{}
	uc := newCancelUseCase(bookings, slots, &fakePublisher{})

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 10, Reason: "передумали"})
	require.NoError(t, err)

	assert.Nil(t, resp.ReleasedSlotID)
	assert.Empty(t, slots.released)
}

func TestCancelBooking_ReasonRequired(t *testing.T) {
	uc := newCancelUseCase(newFakeBookingRepo(pendingBooking(1)), &fakeSlotRepo{}, &fakePublisher{})

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 10, Reason: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{
		BookingID: 1, ActorID: 10,
		Reason: strings.Repeat("a", domain.MaxCancellationReasonLength+1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancelBooking_TerminalStatusesRejected(t *testing.T) {
	for _, status := range []domain.BookingStatus{domain.StatusCancelled, domain.StatusCompleted} {
		booking := pendingBooking(1)
		booking.Status = status
		uc := newCancelUseCase(newFakeBookingRepo(booking), &fakeSlotRepo{}, &fakePublisher{})

		_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 10, Reason: "поздно"})
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestCancelBooking_Access(t *testing.T) {
	t.Run("owner can cancel", func(t *testing.T) {
		uc := newCancelUseCase(newFakeBookingRepo(pendingBooking(1)), &fakeSlotRepo{}, &fakePublisher{})
		_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 10, Reason: "передумали"})
		assert.NoError(t, err)
	})

	t.Run("operator can cancel", func(t *testing.T) {
		uc := newCancelUseCase(newFakeBookingRepo(pendingBooking(1)), &fakeSlotRepo{}, &fakePublisher{})
		_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42, Reason: "преподаватель заболел"})
		assert.NoError(t, err)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		uc := newCancelUseCase(newFakeBookingRepo(pendingBooking(1)), &fakeSlotRepo{}, &fakePublisher{})
		_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 99, Reason: "чужое"})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("program gone from directory", func(t *testing.T) {
		uc := NewUseCase(
			newFakeBookingRepo(pendingBooking(1)),
			&fakeSlotRepo{},
			&fakeProgramClient{err: programdirectory.ErrProgramNotFound},
			&fakePublisher{},
			&fakeTxManager{},
			noopLogger{},
		)
		_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 99, Reason: "чужое"})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestCancelBooking_SerializationFailureMapsToConcurrentUpdate(t *testing.T) {
	uc := NewUseCase(
		newFakeBookingRepo(pendingBooking(1)),
		&fakeSlotRepo{},
		&fakeProgramClient{program: operatedProgram()},
		&fakePublisher{},
		&fakeTxManager{err: txmanager.ErrSerializationFailure},
		noopLogger{},
	)

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 10, Reason: "конфликт"})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestCancelBooking_NotFound(t *testing.T) {
	uc := newCancelUseCase(newFakeBookingRepo(), &fakeSlotRepo{}, &fakePublisher{})

	_, err := uc.Execute(context.Background(), &Request{BookingID: 404, ActorID: 10, Reason: "нет такого"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
