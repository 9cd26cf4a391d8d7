package generate_availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

type fakeSlotRepo struct {
	slots  []*domain.AvailabilitySlot
	nextID int64
}

func (r *fakeSlotRepo) Create(_ context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	r.nextID++
	created := *slot
	created.ID = r.nextID
	r.slots = append(r.slots, &created)
	return &created, nil
}

func (r *fakeSlotRepo) ListByProgram(_ context.Context, filter domain.SlotFilter) ([]*domain.AvailabilitySlot, error) {
	var result []*domain.AvailabilitySlot
	for _, slot := range r.slots {
		if slot.ProgramID != filter.ProgramID {
			continue
		}
		if filter.FromDate != nil && slot.SlotDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && slot.SlotDate.After(*filter.ToDate) {
			continue
		}
		result = append(result, slot)
	}
	return result, nil
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

type fakeTxManager struct{}

func (m *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func activeProgram(operatorID int64) *programdirectory.Program {
	return &programdirectory.Program{
		ID:          1,
		Title:       "Робототехника",
		MaxStudents: 30,
		IsActive:    true,
		OperatorIDs: []int64{operatorID},
	}
}

func newGenerateUseCase(repo *fakeSlotRepo, client *fakeProgramClient) *UseCase {
	return NewUseCase(repo, client, &fakeTxManager{}, noopLogger{})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateAvailability_CreatesSlotsForEveryDay(t *testing.T) {
	repo := &fakeSlotRepo{}
	uc := newGenerateUseCase(repo, &fakeProgramClient{program: activeProgram(42)})

	// Понедельник - среда, два шаблона в день
	resp, err := uc.Execute(context.Background(), &Request{
		ProgramID: 1,
		ActorID:   42,
		StartDate: date(2025, 6, 2),
		EndDate:   date(2025, 6, 4),
		Templates: []domain.TimeTemplate{
			{Start: types.TimeString("10:00"), End: types.TimeString("11:30")},
			{Start: types.TimeString("14:00"), End: types.TimeString("15:30")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 6, resp.CreatedCount)
	assert.Equal(t, 0, resp.SkippedCount)
	assert.Len(t, repo.slots, 6)

	for _, slot := range repo.slots {
		assert.True(t, slot.IsAvailable)
		assert.Equal(t, domain.DefaultSlotMaxBookings, slot.MaxBookings)
	}
}

func TestGenerateAvailability_SkipWeekends(t *testing.T) {
	repo := &fakeSlotRepo{}
	uc := newGenerateUseCase(repo, &fakeProgramClient{program: activeProgram(42)})

	// Пятница 2025-06-06 .. понедельник 2025-06-09
	resp, err := uc.Execute(context.Background(), &Request{
		ProgramID:    1,
		ActorID:      42,
		StartDate:    date(2025, 6, 6),
		EndDate:      date(2025, 6, 9),
		SkipWeekends: true,
		Templates: []domain.TimeTemplate{
			{Start: types.TimeString("10:00"), End: types.TimeString("11:00")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.CreatedCount)
	for _, slot := range repo.slots {
		weekday := slot.SlotDate.Weekday()
		assert.NotEqual(t, time.Saturday, weekday)
		assert.NotEqual(t, time.Sunday, weekday)
	}
}

func TestGenerateAvailability_SkipsConflictingTemplates(t *testing.T) {
	repo := &fakeSlotRepo{}
	uc := newGenerateUseCase(repo, &fakeProgramClient{program: activeProgram(42)})

	// Существующий слот 10:00-12:00 на единственный день диапазона
	_, err := repo.Create(context.Background(), &domain.AvailabilitySlot{
		ProgramID: 1,
		SlotDate:  date(2025, 6, 2),
		StartTime: types.TimeString("10:00"),
		EndTime:   types.TimeString("12:00"),
	})
	require.NoError(t, err)

	resp, err := uc.Execute(context.Background(), &Request{
		ProgramID: 1,
		ActorID:   42,
		StartDate: date(2025, 6, 2),
		EndDate:   date(2025, 6, 2),
		Templates: []domain.TimeTemplate{
			{Start: types.TimeString("11:00"), End: types.TimeString("13:00")}, // пересекает существующий
			{Start: types.TimeString("12:00"), End: types.TimeString("13:30")}, // вплотную, не конфликт
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.CreatedCount)
	assert.Equal(t, 1, resp.SkippedCount)
}

func TestGenerateAvailability_TemplatesConflictWithinRun(t *testing.T) {
	repo := &fakeSlotRepo{}
	uc := newGenerateUseCase(repo, &fakeProgramClient{program: activeProgram(42)})

	// Второй шаблон пересекается с первым: слот, созданный в этом же
	// запуске, тоже участвует в проверке конфликтов
	resp, err := uc.Execute(context.Background(), &Request{
		ProgramID: 1,
		ActorID:   42,
		StartDate: date(2025, 6, 2),
		EndDate:   date(2025, 6, 2),
		Templates: []domain.TimeTemplate{
			{Start: types.TimeString("10:00"), End: types.TimeString("12:00")},
			{Start: types.TimeString("11:00"), End: types.TimeString("13:00")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.CreatedCount)
	assert.Equal(t, 1, resp.SkippedCount)
}

func TestGenerateAvailability_RerunIsIdempotent(t *testing.T) {
	repo := &fakeSlotRepo{}
	uc := newGenerateUseCase(repo, &fakeProgramClient{program: activeProgram(42)})

	req := &Request{
		ProgramID: 1,
		ActorID:   42,
		StartDate: date(2025, 6, 2),
		EndDate:   date(2025, 6, 6),
		Templates: []domain.TimeTemplate{
			{Start: types.TimeString("10:00"), End: types.TimeString("11:00")},
		},
	}

	first, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 5, first.CreatedCount)

	second, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	assert.Equal(t, 5, second.SkippedCount)
	assert.Len(t, repo.slots, 5)
}

func TestGenerateAvailability_AccessAndProgramChecks(t *testing.T) {
	templates := []domain.TimeTemplate{
		{Start: types.TimeString("10:00"), End: types.TimeString("11:00")},
	}

	t.Run("not an operator", func(t *testing.T) {
		uc := newGenerateUseCase(&fakeSlotRepo{}, &fakeProgramClient{program: activeProgram(42)})
		_, err := uc.Execute(context.Background(), &Request{
			ProgramID: 1, ActorID: 99,
			StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 2),
			Templates: templates,
		})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("program not found", func(t *testing.T) {
		uc := newGenerateUseCase(&fakeSlotRepo{}, &fakeProgramClient{err: programdirectory.ErrProgramNotFound})
		_, err := uc.Execute(context.Background(), &Request{
			ProgramID: 1, ActorID: 42,
			StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 2),
			Templates: templates,
		})
		assert.ErrorIs(t, err, ErrProgramNotFound)
	})

	t.Run("inactive program", func(t *testing.T) {
		program := activeProgram(42)
		program.IsActive = false
		uc := newGenerateUseCase(&fakeSlotRepo{}, &fakeProgramClient{program: program})
		_, err := uc.Execute(context.Background(), &Request{
			ProgramID: 1, ActorID: 42,
			StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 2),
			Templates: templates,
		})
		assert.ErrorIs(t, err, ErrProgramInactive)
	})
}

func TestGenerateAvailability_Validation(t *testing.T) {
	uc := newGenerateUseCase(&fakeSlotRepo{}, &fakeProgramClient{program: activeProgram(42)})
	ctx := context.Background()

	templates := []domain.TimeTemplate{
		{Start: types.TimeString("10:00"), End: types.TimeString("11:00")},
	}

	t.Run("end before start", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{
			ProgramID: 1, ActorID: 42,
			StartDate: date(2025, 6, 10), EndDate: date(2025, 6, 2),
			Templates: templates,
		})
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("range too large", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{
			ProgramID: 1, ActorID: 42,
			StartDate: date(2025, 1, 1), EndDate: date(2026, 6, 1),
			Templates: templates,
		})
		assert.ErrorIs(t, err, ErrRangeTooLarge)
	})

	t.Run("no templates", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{
			ProgramID: 1, ActorID: 42,
			StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 2),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("template start after end", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{
			ProgramID: 1, ActorID: 42,
			StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 2),
			Templates: []domain.TimeTemplate{
				{Start: types.TimeString("12:00"), End: types.TimeString("10:00")},
			},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("maxBookings out of range", func(t *testing.T) {
		tooMany := domain.MaxSlotMaxBookings + 1
		_, err := uc.Execute(ctx, &Request{
			ProgramID: 1, ActorID: 42,
			StartDate: date(2025, 6, 2), EndDate: date(2025, 6, 2),
			Templates: templates, MaxBookings: &tooMany,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
