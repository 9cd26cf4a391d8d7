package booking

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

// bookingColumns общий список колонок таблицы bookings
var bookingColumns = []string{
	"id",
	"reference",
	"program_id",
	"school_user_id",
	"slot_id",
	"requested_date",
	"requested_time",
	"student_count",
	"status",
	"contact_name",
	"contact_email",
	"contact_phone",
	"program_title",
	"price_per_student",
	"confirmed_date",
	"confirmed_time",
	"rating",
	"feedback",
	"cancellation_reason",
	"cancelled_at",
	"payment_settled_at",
	"notes",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Если в контексте передана активная транзакция, использует её.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"reference",
			"program_id",
			"school_user_id",
			"requested_date",
			"requested_time",
			"student_count",
			"status",
			"contact_name",
			"contact_email",
			"contact_phone",
			"program_title",
			"price_per_student",
			"notes",
		).
		Values(
			booking.Reference,
			booking.ProgramID,
			booking.SchoolUserID,
			booking.RequestedDate,
			booking.RequestedTime,
			booking.StudentCount,
			booking.Status,
			booking.ContactName,
			booking.ContactEmail,
			booking.ContactPhone,
			booking.ProgramTitle,
			booking.PricePerStudent,
			booking.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID.
// Внутри транзакции блокирует строку (FOR UPDATE), чтобы переходы статусов
// не гонялись с параллельными запросами на то же бронирование.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBookingRow(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetBySchoolUserID получает бронирования школы с опциональным фильтром по статусу
func (r *Repository) GetBySchoolUserID(
	ctx context.Context,
	schoolUserID int64,
	status *domain.BookingStatus,
) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"school_user_id": schoolUserID}).
		OrderBy("requested_date DESC, requested_time DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySchoolUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySchoolUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetByProgramWithFilter получает бронирования программы с гибкой фильтрацией
// по периоду, статусу и включению отмененных бронирований
func (r *Repository) GetByProgramWithFilter(
	ctx context.Context,
	filter domain.ProgramBookingsFilter,
) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"program_id": filter.ProgramID})

	if filter.FromDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"requested_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"requested_date": *filter.ToDate})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeCancelled {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": domain.StatusCancelled})
	}

	selectBuilder = selectBuilder.OrderBy("requested_date DESC, requested_time DESC")

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProgramWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProgramWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// Confirm переводит бронирование в confirmed и привязывает его к слоту.
// Вызывается в одной транзакции с TryReserve на слоте. Условие по
// статусу в WHERE страхует от переходов не из pending.
func (r *Repository) Confirm(
	ctx context.Context,
	id int64,
	slotID int64,
	confirmedDate time.Time,
	confirmedTime types.TimeString,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusConfirmed).
		Set("slot_id", slotID).
		Set("confirmed_date", confirmedDate).
		Set("confirmed_time", confirmedTime).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.StatusPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Confirm - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "Confirm")
}

// Cancel отменяет бронирование с указанием причины.
// Затрагивает только активные статусы (pending, confirmed).
func (r *Repository) Cancel(ctx context.Context, id int64, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": []domain.BookingStatus{domain.StatusPending, domain.StatusConfirmed}}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "Cancel")
}

// Complete переводит бронирование в completed с оценкой и отзывом.
// Затрагивает только бронирования в статусе confirmed.
func (r *Repository) Complete(ctx context.Context, id int64, rating int, feedback *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCompleted).
		Set("rating", rating).
		Set("feedback", feedback).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.StatusConfirmed}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Complete - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "Complete")
}

// UpdateStudentCount обновляет количество учеников бронирования
func (r *Repository) UpdateStudentCount(ctx context.Context, id int64, count int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("student_count", count).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStudentCount - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "UpdateStudentCount")
}

// SetPaymentSettled фиксирует внешний сигнал об оплате.
// Оплата никак не влияет на переходы статусов.
func (r *Repository) SetPaymentSettled(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_settled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetPaymentSettled - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "SetPaymentSettled")
}

// execExpectingRow выполняет UPDATE и требует ровно одну затронутую строку
func (r *Repository) execExpectingRow(
	ctx context.Context,
	executor DBExecutor,
	query string,
	args []interface{},
	method string,
) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBookingRow сканирует одну строку в бронирование
func scanBookingRow(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var confirmedTime types.TimeString
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.ProgramID,
		&booking.SchoolUserID,
		&booking.SlotID,
		&booking.RequestedDate,
		&booking.RequestedTime,
		&booking.StudentCount,
		&booking.Status,
		&booking.ContactName,
		&booking.ContactEmail,
		&booking.ContactPhone,
		&booking.ProgramTitle,
		&booking.PricePerStudent,
		&booking.ConfirmedDate,
		&confirmedTime,
		&booking.Rating,
		&booking.Feedback,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&booking.PaymentSettledAt,
		&booking.Notes,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, err
	}

	if !confirmedTime.IsZero() {
		booking.ConfirmedTime = &confirmedTime
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBookingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
