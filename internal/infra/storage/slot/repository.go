package slot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/pkg/dbmetrics"
	"github.com/sparkedu/spark-scheduler/pkg/psqlbuilder"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// slotColumns общий список колонок таблицы availability_slots
var slotColumns = []string{
	"id",
	"program_id",
	"slot_date",
	"start_time",
	"end_time",
	"max_bookings",
	"current_bookings",
	"is_available",
	"notes",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы со слотами доступности
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый слот доступности.
// Если в контексте передана активная транзакция, использует её.
func (r *Repository) Create(ctx context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("availability_slots").
		Columns(
			"program_id",
			"slot_date",
			"start_time",
			"end_time",
			"max_bookings",
			"current_bookings",
			"is_available",
			"notes",
		).
		Values(
			slot.ProgramID,
			slot.SlotDate,
			slot.StartTime,
			slot.EndTime,
			slot.MaxBookings,
			slot.CurrentBookings,
			slot.IsAvailable,
			slot.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&slot.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return slot, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.AvailabilitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("availability_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlotRow(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// ListByProgram получает слоты программы с фильтрацией по периоду.
// Внутри транзакции при запросе на конкретную дату добавляет FOR UPDATE,
// чтобы пакетная генерация слотов не гонялась с параллельными запусками.
func (r *Repository) ListByProgram(ctx context.Context, filter domain.SlotFilter) ([]*domain.AvailabilitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("availability_slots").
		Where(squirrel.Eq{"program_id": filter.ProgramID})

	if filter.FromDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"slot_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"slot_date": *filter.ToDate})
	}
	if filter.OnlyAvailable {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_available": true})
	}

	selectBuilder = selectBuilder.OrderBy("slot_date ASC, start_time ASC")

	if dbmetrics.IsInTransaction(ctx) &&
		filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.Equal(*filter.ToDate) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByProgram - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByProgram - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// FindOverlapping находит слоты программы на указанную дату, пересекающиеся
// с интервалом [start, end). Граничные случаи пересечением не считаются:
// existing.start < end AND existing.end > start.
// excludeSlotID позволяет проверить обновление слота против всех, кроме него самого.
func (r *Repository) FindOverlapping(
	ctx context.Context,
	programID int64,
	date time.Time,
	start, end types.TimeString,
	excludeSlotID *int64,
) ([]*domain.AvailabilitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("availability_slots").
		Where(squirrel.Eq{"program_id": programID}).
		Where(squirrel.Eq{"slot_date": date}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC")

	if excludeSlotID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeSlotID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// FindByProgramDateStart находит слот программы по дате и времени начала
func (r *Repository) FindByProgramDateStart(
	ctx context.Context,
	programID int64,
	date time.Time,
	start types.TimeString,
) (*domain.AvailabilitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("availability_slots").
		Where(squirrel.Eq{"program_id": programID}).
		Where(squirrel.Eq{"slot_date": date}).
		Where(squirrel.Eq{"start_time": start}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: FindByProgramDateStart - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlotRow(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindByProgramDateStart - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// Update обновляет операторские поля слота (времена, вместимость, доступность, заметки).
// Счетчик current_bookings этим методом не меняется - только TryReserve/Release.
func (r *Repository) Update(ctx context.Context, slot *domain.AvailabilitySlot) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_slots").
		Set("start_time", slot.StartTime).
		Set("end_time", slot.EndTime).
		Set("max_bookings", slot.MaxBookings).
		Set("is_available", slot.IsAvailable).
		Set("notes", slot.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slot.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// Delete удаляет слот. Слот с current_bookings > 0 удалить нельзя.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("availability_slots").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"current_bookings": 0}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		// Различаем "слот не найден" и "слот занят бронированиями"
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrSlotHasBookings
	}

	return nil
}

// TryReserve атомарно резервирует count мест в слоте.
// Инкремент выполняется одним условным UPDATE, поэтому два конкурентных
// подтверждения на почти заполненном слоте не могут оба пройти:
// UPDATE ... WHERE current_bookings + count <= max_bookings AND is_available.
func (r *Repository) TryReserve(ctx context.Context, id int64, count int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_slots").
		Set("current_bookings", squirrel.Expr("current_bookings + ?", count)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"is_available": true}).
		Where(squirrel.Expr("current_bookings + ? <= max_bookings", count)).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: TryReserve - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: TryReserve - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: TryReserve - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected > 0 {
		return nil
	}

	// Резервирование не прошло - выясняем причину
	slot, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !slot.IsAvailable {
		return ErrSlotUnavailable
	}
	return ErrSlotFull
}

// Release освобождает count мест в слоте. Счетчик не опускается ниже нуля.
func (r *Repository) Release(ctx context.Context, id int64, count int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_slots").
		Set("current_bookings", squirrel.Expr("GREATEST(current_bookings - ?, 0)", count)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Release - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Release - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Release - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// BulkSetAvailability выставляет операторский флаг is_available сразу
// по списку слотов. Счетчики бронирований не трогает.
func (r *Repository) BulkSetAvailability(ctx context.Context, ids []int64, isAvailable bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("availability_slots").
		Set("is_available", isAvailable).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ids}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: BulkSetAvailability - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: BulkSetAvailability - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: BulkSetAvailability - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

// AggregateStats считает агрегаты по слотам программы за период одним запросом
func (r *Repository) AggregateStats(
	ctx context.Context,
	programID int64,
	from, to time.Time,
) (*domain.SlotAggregates, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE is_available)",
		"COUNT(*) FILTER (WHERE current_bookings >= max_bookings)",
		"COALESCE(SUM(current_bookings), 0)",
		"COALESCE(SUM(max_bookings), 0)",
	).
		From("availability_slots").
		Where(squirrel.Eq{"program_id": programID}).
		Where(squirrel.GtOrEq{"slot_date": from}).
		Where(squirrel.LtOrEq{"slot_date": to}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: AggregateStats - build select query: %v", ErrBuildQuery, err)
	}

	var agg domain.SlotAggregates
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&agg.TotalSlots,
		&agg.AvailableSlots,
		&agg.FullyBookedSlots,
		&agg.TotalBookings,
		&agg.TotalCapacity,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: AggregateStats - scan aggregates: %v", ErrScanRow, err)
	}

	return &agg, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSlotRow сканирует одну строку в слот
func scanSlotRow(row rowScanner) (*domain.AvailabilitySlot, error) {
	var slot domain.AvailabilitySlot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&slot.ID,
		&slot.ProgramID,
		&slot.SlotDate,
		&slot.StartTime,
		&slot.EndTime,
		&slot.MaxBookings,
		&slot.CurrentBookings,
		&slot.IsAvailable,
		&slot.Notes,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, err
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return &slot, nil
}

// scanSlots сканирует результаты запроса в слайс слотов
func scanSlots(rows *sql.Rows) ([]*domain.AvailabilitySlot, error) {
	slots := make([]*domain.AvailabilitySlot, 0)

	for rows.Next() {
		slot, err := scanSlotRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}
