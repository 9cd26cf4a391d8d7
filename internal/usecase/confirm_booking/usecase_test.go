package confirm_booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	bookingStore "github.com/sparkedu/spark-scheduler/internal/infra/storage/booking"
	slotStore "github.com/sparkedu/spark-scheduler/internal/infra/storage/slot"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	"github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	cancelBooking "github.com/sparkedu/spark-scheduler/internal/usecase/cancel_booking"
	"github.com/sparkedu/spark-scheduler/pkg/txmanager"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

type fakeBookingRepo struct {
	mu       sync.Mutex
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
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, bookingStore.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (r *fakeBookingRepo) Confirm(_ context.Context, id int64, slotID int64, confirmedDate time.Time, confirmedTime types.TimeString) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return bookingStore.ErrBookingNotFound
	}
	booking.Status = domain.StatusConfirmed
	booking.SlotID = &slotID
	booking.ConfirmedDate = &confirmedDate
	booking.ConfirmedTime = &confirmedTime
	return nil
}

func (r *fakeBookingRepo) Cancel(_ context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return bookingStore.ErrBookingNotFound
	}
	booking.Status = domain.StatusCancelled
	booking.CancellationReason = &reason
	return nil
}

type fakeSlotStore struct {
	mu     sync.Mutex
	slots  map[int64]*domain.AvailabilitySlot
	nextID int64
}

func newFakeSlotStore(slots ...*domain.AvailabilitySlot) *fakeSlotStore {
	store := &fakeSlotStore{slots: make(map[int64]*domain.AvailabilitySlot)}
	for _, s := range slots {
		store.slots[s.ID] = s
		if s.ID > store.nextID {
			store.nextID = s.ID
		}
	}
	return store
}

func (s *fakeSlotStore) Create(_ context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	created := *slot
	created.ID = s.nextID
	s.slots[created.ID] = &created
	copied := created
	return &copied, nil
}

func (s *fakeSlotStore) GetByID(_ context.Context, id int64) (*domain.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, slotStore.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (s *fakeSlotStore) FindByProgramDateStart(_ context.Context, programID int64, date time.Time, start types.TimeString) (*domain.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.slots {
		if slot.ProgramID == programID && slot.SlotDate.Equal(date) && slot.StartTime == start {
			copied := *slot
			return &copied, nil
		}
	}
	return nil, slotStore.ErrSlotNotFound
}

func (s *fakeSlotStore) FindOverlapping(_ context.Context, programID int64, date time.Time, start, end types.TimeString, excludeSlotID *int64) ([]*domain.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var overlapping []*domain.AvailabilitySlot
	for _, slot := range s.slots {
		if excludeSlotID != nil && slot.ID == *excludeSlotID {
			continue
		}
		if slot.ProgramID == programID && slot.SlotDate.Equal(date) && slot.StartTime < end && slot.EndTime > start {
			copied := *slot
			overlapping = append(overlapping, &copied)
		}
	}
	return overlapping, nil
}

func (s *fakeSlotStore) Release(_ context.Context, id int64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return slotStore.ErrSlotNotFound
	}
	slot.CurrentBookings -= count
	if slot.CurrentBookings < 0 {
		slot.CurrentBookings = 0
	}
	return nil
}

// TryReserve повторяет семантику условного UPDATE: место занимается
// только если оно есть и слот открыт
func (s *fakeSlotStore) TryReserve(_ context.Context, id int64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return slotStore.ErrSlotNotFound
	}
	if !slot.IsAvailable {
		return slotStore.ErrSlotUnavailable
	}
	if slot.CurrentBookings+count > slot.MaxBookings {
		return slotStore.ErrSlotFull
	}
	slot.CurrentBookings += count
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
	mu     sync.Mutex
	events []notifier.Event
}

func (p *fakePublisher) Publish(_ context.Context, event notifier.Event, _ notifier.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
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

var visitDate = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func pendingBooking(id int64) *domain.Booking {
	return &domain.Booking{
		ID:              id,
		Reference:       "ref-1",
		ProgramID:       1,
		SchoolUserID:    10,
		RequestedDate:   visitDate,
		RequestedTime:   types.TimeString("10:00"),
		StudentCount:    20,
		Status:          domain.StatusPending,
		PricePerStudent: 350,
	}
}

func operatedProgram() *programdirectory.Program {
	return &programdirectory.Program{
		ID:              1,
		Title:           "Робототехника",
		DurationMinutes: 90,
		MaxStudents:     30,
		IsActive:        true,
		OperatorIDs:     []int64{42},
	}
}

func openSlot(id int64, maxBookings int) *domain.AvailabilitySlot {
	return &domain.AvailabilitySlot{
		ID:          id,
		ProgramID:   1,
		SlotDate:    visitDate,
		StartTime:   types.TimeString("10:00"),
		EndTime:     types.TimeString("11:30"),
		MaxBookings: maxBookings,
		IsAvailable: true,
	}
}

func newConfirmUseCase(bookings *fakeBookingRepo, slots *fakeSlotStore, publisher *fakePublisher) *UseCase {
	return NewUseCase(bookings, slots, &fakeProgramClient{program: operatedProgram()}, publisher, &fakeTxManager{}, 1, noopLogger{})
}

func TestConfirmBooking_ExplicitSlot(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	slots := newFakeSlotStore(openSlot(5, 2))
	publisher := &fakePublisher{}
	uc := newConfirmUseCase(bookings, slots, publisher)

	slotID := int64(5)
	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42, SlotID: &slotID})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Equal(t, int64(5), resp.SlotID)
	assert.Equal(t, "2025-09-01", resp.ConfirmedDate)
	assert.Equal(t, types.TimeString("10:00"), resp.ConfirmedTime)
	assert.InDelta(t, 7000.0, resp.TotalPrice, 0.001)

	reserved, err := slots.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, reserved.CurrentBookings)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, notifier.EventBookingConfirmed, publisher.events[0])
}

func TestConfirmBooking_FindsSlotByRequestedDateTime(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	slots := newFakeSlotStore(openSlot(5, 2))
	uc := newConfirmUseCase(bookings, slots, &fakePublisher{})

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.SlotID)
}

func TestConfirmBooking_AutoCreatesMissingSlot(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	slots := newFakeSlotStore()
	uc := NewUseCase(bookings, slots, &fakeProgramClient{program: operatedProgram()}, &fakePublisher{}, &fakeTxManager{}, 3, noopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42})
	require.NoError(t, err)

	created, err := slots.GetByID(context.Background(), resp.SlotID)
	require.NoError(t, err)
	// Длительность слота берется из программы, вместимость из конфигурации
	assert.Equal(t, types.TimeString("11:30"), created.EndTime)
	assert.Equal(t, 3, created.MaxBookings)
	assert.Equal(t, 1, created.CurrentBookings)
	assert.True(t, created.IsAvailable)
}

// Автосоздание не должно порождать слот, пересекающийся с существующим
func TestConfirmBooking_AutoCreateRejectsOverlappingWindow(t *testing.T) {
	booking := pendingBooking(1)
	booking.RequestedTime = types.TimeString("10:30")
	bookings := newFakeBookingRepo(booking)
	// Существующий слот 10:00-11:30, запрошенное окно 10:30-12:00
	slots := newFakeSlotStore(openSlot(5, 2))
	publisher := &fakePublisher{}
	uc := newConfirmUseCase(bookings, slots, publisher)

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42})
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Новый слот не создан, бронирование осталось pending
	assert.Len(t, slots.slots, 1)
	current, getErr := bookings.GetByID(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusPending, current.Status)
	assert.Empty(t, publisher.events)
}

// Явный слот может лежать на другой дате: это механизм переноса
// бронирования оператором, подтвержденная дата берется из слота
func TestConfirmBooking_ExplicitSlotOnDifferentDate(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	moved := openSlot(5, 2)
	moved.SlotDate = visitDate.AddDate(0, 0, 7)
	moved.StartTime = types.TimeString("14:00")
	moved.EndTime = types.TimeString("15:30")
	slots := newFakeSlotStore(moved)
	uc := newConfirmUseCase(bookings, slots, &fakePublisher{})

	slotID := int64(5)
	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42, SlotID: &slotID})
	require.NoError(t, err)
	assert.Equal(t, "2025-09-08", resp.ConfirmedDate)
	assert.Equal(t, types.TimeString("14:00"), resp.ConfirmedTime)
}

func TestConfirmBooking_SlotMismatch(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	foreign := openSlot(5, 2)
	foreign.ProgramID = 99
	slots := newFakeSlotStore(foreign)
	uc := newConfirmUseCase(bookings, slots, &fakePublisher{})

	slotID := int64(5)
	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42, SlotID: &slotID})
	assert.ErrorIs(t, err, ErrSlotMismatch)
}

func TestConfirmBooking_SlotFull(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	full := openSlot(5, 2)
	full.CurrentBookings = 2
	slots := newFakeSlotStore(full)
	publisher := &fakePublisher{}
	uc := newConfirmUseCase(bookings, slots, publisher)

	slotID := int64(5)
	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42, SlotID: &slotID})
	assert.ErrorIs(t, err, ErrSlotFull)

	// Бронирование осталось pending, событие не публиковалось
	booking, getErr := bookings.GetByID(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusPending, booking.Status)
	assert.Empty(t, publisher.events)
}

func TestConfirmBooking_SlotUnavailable(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	closed := openSlot(5, 2)
	closed.IsAvailable = false
	slots := newFakeSlotStore(closed)
	uc := newConfirmUseCase(bookings, slots, &fakePublisher{})

	slotID := int64(5)
	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42, SlotID: &slotID})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestConfirmBooking_OnlyPendingCanBeConfirmed(t *testing.T) {
	for _, status := range []domain.BookingStatus{domain.StatusConfirmed, domain.StatusCancelled, domain.StatusCompleted} {
		booking := pendingBooking(1)
		booking.Status = status
		bookings := newFakeBookingRepo(booking)
		uc := newConfirmUseCase(bookings, newFakeSlotStore(openSlot(5, 2)), &fakePublisher{})

		_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42})
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestConfirmBooking_AccessDenied(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	uc := newConfirmUseCase(bookings, newFakeSlotStore(openSlot(5, 2)), &fakePublisher{})

	// Владелец бронирования не оператор, подтверждать не может
	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 10})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestConfirmBooking_BookingNotFound(t *testing.T) {
	uc := newConfirmUseCase(newFakeBookingRepo(), newFakeSlotStore(), &fakePublisher{})

	_, err := uc.Execute(context.Background(), &Request{BookingID: 404, ActorID: 42})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestConfirmBooking_SerializationFailureMapsToConcurrentUpdate(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1))
	uc := NewUseCase(
		bookings,
		newFakeSlotStore(openSlot(5, 2)),
		&fakeProgramClient{program: operatedProgram()},
		&fakePublisher{},
		&fakeTxManager{err: txmanager.ErrSerializationFailure},
		1,
		noopLogger{},
	)

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

// Параллельные подтверждения в один слот не могут занять больше мест,
// чем максимум слота
func TestConfirmBooking_ConcurrentReservationsRespectCapacity(t *testing.T) {
	const attempts = 20
	const capacity = 3

	bookingList := make([]*domain.Booking, attempts)
	for i := range bookingList {
		bookingList[i] = pendingBooking(int64(i + 1))
	}
	bookings := newFakeBookingRepo(bookingList...)
	slots := newFakeSlotStore(openSlot(5, capacity))
	uc := newConfirmUseCase(bookings, slots, &fakePublisher{})

	slotID := int64(5)
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(bookingID int64) {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), &Request{BookingID: bookingID, ActorID: 42, SlotID: &slotID})
			results <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	confirmed, rejected := 0, 0
	for err := range results {
		if err == nil {
			confirmed++
			continue
		}
		require.ErrorIs(t, err, ErrSlotFull)
		rejected++
	}

	assert.Equal(t, capacity, confirmed)
	assert.Equal(t, attempts-capacity, rejected)

	slot, err := slots.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, capacity, slot.CurrentBookings)
}

// Сквозной сценарий на общем хранилище: подтверждение заполняет слот,
// второе подтверждение получает отказ, отмена освобождает место,
// после чего второе бронирование подтверждается
func TestConfirmBooking_CancelFreesSeatForNextBooking(t *testing.T) {
	bookings := newFakeBookingRepo(pendingBooking(1), pendingBooking(2))
	slots := newFakeSlotStore(openSlot(5, 1))
	programs := &fakeProgramClient{program: operatedProgram()}
	publisher := &fakePublisher{}

	confirmUC := NewUseCase(bookings, slots, programs, publisher, &fakeTxManager{}, 1, noopLogger{})
	cancelUC := cancelBooking.NewUseCase(bookings, slots, programs, publisher, &fakeTxManager{}, noopLogger{})

	slotID := int64(5)

	// Первое подтверждение занимает единственное место
	_, err := confirmUC.Execute(context.Background(), &Request{BookingID: 1, ActorID: 42, SlotID: &slotID})
	require.NoError(t, err)

	// Второе упирается в заполненный слот и остается pending
	_, err = confirmUC.Execute(context.Background(), &Request{BookingID: 2, ActorID: 42, SlotID: &slotID})
	require.ErrorIs(t, err, ErrSlotFull)

	// Отмена первого освобождает место в слоте
	cancelResp, err := cancelUC.Execute(context.Background(), &cancelBooking.Request{
		BookingID: 1,
		ActorID:   42,
		Reason:    "школа перенесла визит",
	})
	require.NoError(t, err)
	require.NotNil(t, cancelResp.ReleasedSlotID)
	assert.Equal(t, int64(5), *cancelResp.ReleasedSlotID)

	freed, err := slots.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, freed.CurrentBookings)

	// Теперь второе бронирование подтверждается в тот же слот
	resp, err := confirmUC.Execute(context.Background(), &Request{BookingID: 2, ActorID: 42, SlotID: &slotID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)

	reserved, err := slots.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, reserved.CurrentBookings)

	assert.Equal(t, []notifier.Event{
		notifier.EventBookingConfirmed,
		notifier.EventBookingCancelled,
		notifier.EventBookingConfirmed,
	}, publisher.events)
}
