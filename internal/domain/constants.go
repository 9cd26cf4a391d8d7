package domain

// Default configuration values
const (
	DefaultSlotMaxBookings = 1
)

// Business validation constants
const (
	MinSlotMaxBookings = 1
	MaxSlotMaxBookings = 100

	MinRating = 1
	MaxRating = 5

	MaxGenerateRangeDays = 366

	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxFeedbackLength           = 2000
	MaxStudentNameLength        = 200
	MaxGradeLevelLength         = 50
	MaxContactLength            = 200
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// TerminalStatuses список статусов, из которых нет переходов
var TerminalStatuses = []BookingStatus{
	StatusCancelled,
	StatusCompleted,
}

// ActiveStatuses список статусов, учитываемых при подсчете занятости слотов
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}
