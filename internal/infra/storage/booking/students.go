package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/pkg/dbmetrics"
	"github.com/sparkedu/spark-scheduler/pkg/psqlbuilder"
)

// AddStudent добавляет запись ученика в состав бронирования
func (r *Repository) AddStudent(ctx context.Context, student *domain.BookingStudent) (*domain.BookingStudent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_students").
		Columns(
			"booking_id",
			"name",
			"grade_level",
			"guardian_contact",
		).
		Values(
			student.BookingID,
			student.Name,
			student.GradeLevel,
			student.GuardianContact,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: AddStudent - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&student.ID,
		&createdAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: AddStudent - execute insert: %v", ErrExecQuery, err)
	}

	student.CreatedAt = createdAt.Time

	return student, nil
}

// ListStudents возвращает состав бронирования в порядке добавления
func (r *Repository) ListStudents(ctx context.Context, bookingID int64) ([]*domain.BookingStudent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_id",
		"name",
		"grade_level",
		"guardian_contact",
		"created_at",
	).
		From("booking_students").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListStudents - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListStudents - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	students := make([]*domain.BookingStudent, 0)
	for rows.Next() {
		var student domain.BookingStudent
		var createdAt sql.NullTime

		err := rows.Scan(
			&student.ID,
			&student.BookingID,
			&student.Name,
			&student.GradeLevel,
			&student.GuardianContact,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListStudents - scan row: %v", ErrScanRow, err)
		}

		student.CreatedAt = createdAt.Time
		students = append(students, &student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListStudents - rows error: %v", ErrScanRow, err)
	}

	return students, nil
}

// DeleteStudent удаляет запись ученика из состава бронирования
func (r *Repository) DeleteStudent(ctx context.Context, bookingID, studentID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("booking_students").
		Where(squirrel.Eq{"id": studentID}).
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: DeleteStudent - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteStudent - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteStudent - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStudentNotFound
	}

	return nil
}
