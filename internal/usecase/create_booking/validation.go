package create_booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.SchoolUserID <= 0 {
		return fmt.Errorf("%w: schoolUserID must be positive", ErrInvalidInput)
	}

	if req.ProgramID <= 0 {
		return fmt.Errorf("%w: programID must be positive", ErrInvalidInput)
	}

	if req.RequestedDate.IsZero() {
		return fmt.Errorf("%w: requestedDate is required", ErrInvalidInput)
	}

	if req.RequestedTime.IsZero() {
		return fmt.Errorf("%w: requestedTime is required", ErrInvalidInput)
	}

	if err := req.RequestedTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid requestedTime format: %v", ErrInvalidInput, err)
	}

	if req.StudentCount <= 0 {
		return fmt.Errorf("%w: studentCount must be positive", ErrInvalidInput)
	}

	if strings.TrimSpace(req.ContactName) == "" {
		return fmt.Errorf("%w: contactName is required", ErrInvalidInput)
	}

	if strings.TrimSpace(req.ContactEmail) == "" || !strings.Contains(req.ContactEmail, "@") {
		return fmt.Errorf("%w: contactEmail is invalid", ErrInvalidInput)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	for i, student := range req.Students {
		if strings.TrimSpace(student.Name) == "" {
			return fmt.Errorf("%w: student %d has empty name", ErrInvalidInput, i)
		}
		if len(student.Name) > domain.MaxStudentNameLength {
			return fmt.Errorf("%w: student %d name exceeds %d characters", ErrInvalidInput, i, domain.MaxStudentNameLength)
		}
	}

	if len(req.Students) > 0 && len(req.Students) > req.StudentCount {
		return fmt.Errorf("%w: roster has more entries than studentCount", ErrInvalidInput)
	}

	return nil
}

// validateDate проверяет, что дата визита не в прошлом
func validateDate(requestedDate, now time.Time) error {
	dateOnly := time.Date(requestedDate.Year(), requestedDate.Month(), requestedDate.Day(), 0, 0, 0, 0, requestedDate.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if dateOnly.Before(nowOnly) {
		return fmt.Errorf("%w: requested date is in the past", ErrInvalidDate)
	}

	return nil
}
