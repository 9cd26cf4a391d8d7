package generate_availability

import (
	"fmt"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ProgramID <= 0 {
		return fmt.Errorf("%w: programID must be positive", ErrInvalidInput)
	}

	if req.ActorID <= 0 {
		return fmt.Errorf("%w: actorID must be positive", ErrInvalidInput)
	}

	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", ErrInvalidInput)
	}

	if req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("%w: endDate is before startDate", ErrInvalidDateRange)
	}

	days := int(req.EndDate.Sub(req.StartDate).Hours()/24) + 1
	if days > domain.MaxGenerateRangeDays {
		return fmt.Errorf("%w: range covers %d days, maximum is %d", ErrRangeTooLarge, days, domain.MaxGenerateRangeDays)
	}

	if len(req.Templates) == 0 {
		return fmt.Errorf("%w: at least one time template is required", ErrInvalidInput)
	}

	for i, tpl := range req.Templates {
		if err := tpl.Start.Validate(); err != nil {
			return fmt.Errorf("%w: template %d has invalid start time: %v", ErrInvalidInput, i, err)
		}
		if err := tpl.End.Validate(); err != nil {
			return fmt.Errorf("%w: template %d has invalid end time: %v", ErrInvalidInput, i, err)
		}
		if !tpl.Start.IsBefore(tpl.End) {
			return fmt.Errorf("%w: template %d start time must be before end time", ErrInvalidInput, i)
		}
	}

	if req.MaxBookings != nil {
		if *req.MaxBookings < domain.MinSlotMaxBookings || *req.MaxBookings > domain.MaxSlotMaxBookings {
			return fmt.Errorf("%w: maxBookings must be between %d and %d",
				ErrInvalidInput, domain.MinSlotMaxBookings, domain.MaxSlotMaxBookings)
		}
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// isWeekend проверяет, что дата приходится на субботу или воскресенье
func isWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// truncateToDay обнуляет время, оставляя только дату
func truncateToDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}

// hasOverlap проверяет пересечение шаблона с уже существующими слотами дня
func hasOverlap(tpl domain.TimeTemplate, slots []*domain.AvailabilitySlot) bool {
	for _, slot := range slots {
		if slot.Overlaps(tpl.Start, tpl.End) {
			return true
		}
	}
	return false
}
