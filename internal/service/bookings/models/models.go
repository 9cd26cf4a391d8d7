package models

import (
	"errors"
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CompleteBookingRequest запрос на завершение бронирования с оценкой
type CompleteBookingRequest struct {
	ActorID  int64
	Rating   int
	Feedback *string
}

// AddStudentRequest запрос на добавление ученика в состав бронирования
type AddStudentRequest struct {
	ActorID         int64
	Name            string
	GradeLevel      string
	GuardianContact string
}

// RemoveStudentRequest запрос на удаление ученика из состава бронирования
type RemoveStudentRequest struct {
	ActorID   int64
	StudentID int64
}

// GetSchoolBookingsRequest запрос на получение бронирований школы
type GetSchoolBookingsRequest struct {
	SchoolUserID int64
	ActorID      int64
	Status       *string
}

// GetProgramBookingsRequest запрос на получение бронирований программы
type GetProgramBookingsRequest struct {
	ProgramID        int64
	ActorID          int64
	FromDate         *time.Time
	ToDate           *time.Time
	Status           *string
	IncludeCancelled bool
}

// ToDomainFilter конвертирует запрос в доменный фильтр
func (r *GetProgramBookingsRequest) ToDomainFilter() (domain.ProgramBookingsFilter, error) {
	filter := domain.ProgramBookingsFilter{
		ProgramID:        r.ProgramID,
		FromDate:         r.FromDate,
		ToDate:           r.ToDate,
		IncludeCancelled: r.IncludeCancelled,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return domain.ProgramBookingsFilter{}, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// StudentResponse запись ученика в ответе сервиса
type StudentResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	GradeLevel      string `json:"gradeLevel"`
	GuardianContact string `json:"guardianContact"`
}

// BookingResponse бронирование в ответе сервиса
type BookingResponse struct {
	ID              int64             `json:"id"`
	Reference       string            `json:"reference"`
	ProgramID       int64             `json:"programId"`
	SchoolUserID    int64             `json:"schoolUserId"`
	SlotID          *int64            `json:"slotId,omitempty"`
	RequestedDate   string            `json:"requestedDate"`
	RequestedTime   types.TimeString  `json:"requestedTime"`
	StudentCount    int               `json:"studentCount"`
	Status          string            `json:"status"`
	ContactName     string            `json:"contactName"`
	ContactEmail    string            `json:"contactEmail"`
	ContactPhone    *string           `json:"contactPhone,omitempty"`
	ProgramTitle    string            `json:"programTitle"`
	PricePerStudent float64           `json:"pricePerStudent"`
	TotalPrice      float64           `json:"totalPrice"`
	ConfirmedDate   *string           `json:"confirmedDate,omitempty"`
	ConfirmedTime   *types.TimeString `json:"confirmedTime,omitempty"`
	Rating          *int              `json:"rating,omitempty"`
	Feedback        *string           `json:"feedback,omitempty"`
	CancellationReason *string        `json:"cancellationReason,omitempty"`
	PaymentSettled  bool              `json:"paymentSettled"`
	Notes           *string           `json:"notes,omitempty"`
	Students        []*StudentResponse `json:"students,omitempty"`
	CreatedAt       string            `json:"createdAt"`
	UpdatedAt       string            `json:"updatedAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Total    int                `json:"total"`
}

// FromDomainBooking конвертирует доменное бронирование в ответ сервиса
func FromDomainBooking(booking *domain.Booking) *BookingResponse {
	response := &BookingResponse{
		ID:                 booking.ID,
		Reference:          booking.Reference,
		ProgramID:          booking.ProgramID,
		SchoolUserID:       booking.SchoolUserID,
		SlotID:             booking.SlotID,
		RequestedDate:      booking.RequestedDate.Format(domain.DateFormat),
		RequestedTime:      booking.RequestedTime,
		StudentCount:       booking.StudentCount,
		Status:             string(booking.Status),
		ContactName:        booking.ContactName,
		ContactEmail:       booking.ContactEmail,
		ContactPhone:       booking.ContactPhone,
		ProgramTitle:       booking.ProgramTitle,
		PricePerStudent:    booking.PricePerStudent,
		TotalPrice:         booking.TotalPrice(),
		ConfirmedTime:      booking.ConfirmedTime,
		Rating:             booking.Rating,
		Feedback:           booking.Feedback,
		CancellationReason: booking.CancellationReason,
		PaymentSettled:     booking.PaymentSettledAt != nil,
		Notes:              booking.Notes,
		CreatedAt:          booking.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          booking.UpdatedAt.Format(time.RFC3339),
	}

	if booking.ConfirmedDate != nil {
		confirmedDate := booking.ConfirmedDate.Format(domain.DateFormat)
		response.ConfirmedDate = &confirmedDate
	}

	return response
}

// FromDomainStudent конвертирует запись ученика в ответ сервиса
func FromDomainStudent(student *domain.BookingStudent) *StudentResponse {
	return &StudentResponse{
		ID:              student.ID,
		Name:            student.Name,
		GradeLevel:      student.GradeLevel,
		GuardianContact: student.GuardianContact,
	}
}

// FromDomainBookingList конвертирует список доменных бронирований
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	result := make([]*BookingResponse, len(bookings))
	for i, booking := range bookings {
		result[i] = FromDomainBooking(booking)
	}
	return &BookingListResponse{
		Bookings: result,
		Total:    len(result),
	}
}

// ToDomainBookingStatus конвертирует строку статуса в доменный тип
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	switch domain.BookingStatus(status) {
	case domain.StatusPending, domain.StatusConfirmed, domain.StatusCancelled, domain.StatusCompleted:
		return domain.BookingStatus(status), nil
	default:
		return "", ErrInvalidStatus
	}
}
