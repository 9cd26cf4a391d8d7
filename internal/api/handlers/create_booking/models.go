package create_booking

import (
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
	createBooking "github.com/sparkedu/spark-scheduler/internal/usecase/create_booking"
	"github.com/sparkedu/spark-scheduler/pkg/types"
)

// StudentInput запись ученика в HTTP запросе
type StudentInput struct {
	Name            string `json:"name"`
	GradeLevel      string `json:"gradeLevel,omitempty"`
	GuardianContact string `json:"guardianContact,omitempty"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ProgramID     int64          `json:"programId"`
	RequestedDate string         `json:"requestedDate"` // "2026-04-15"
	RequestedTime string         `json:"requestedTime"` // "10:00"
	StudentCount  int            `json:"studentCount"`
	ContactName   string         `json:"contactName"`
	ContactEmail  string         `json:"contactEmail"`
	ContactPhone  *string        `json:"contactPhone,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
	Students      []StudentInput `json:"students,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              int64   `json:"id"`
	Reference       string  `json:"reference"`
	ProgramID       int64   `json:"programId"`
	SchoolUserID    int64   `json:"schoolUserId"`
	RequestedDate   string  `json:"requestedDate"`
	RequestedTime   string  `json:"requestedTime"`
	StudentCount    int     `json:"studentCount"`
	Status          string  `json:"status"`
	ProgramTitle    string  `json:"programTitle"`
	PricePerStudent float64 `json:"pricePerStudent"`
	TotalPrice      float64 `json:"totalPrice"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(schoolUserID int64) (*createBooking.Request, error) {
	requestedDate, err := time.Parse(domain.DateFormat, r.RequestedDate)
	if err != nil {
		return nil, err
	}

	requestedTime, err := types.NewTimeStringFromString(r.RequestedTime)
	if err != nil {
		return nil, err
	}

	students := make([]createBooking.StudentInput, len(r.Students))
	for i, s := range r.Students {
		students[i] = createBooking.StudentInput{
			Name:            s.Name,
			GradeLevel:      s.GradeLevel,
			GuardianContact: s.GuardianContact,
		}
	}

	return &createBooking.Request{
		SchoolUserID:  schoolUserID,
		ProgramID:     r.ProgramID,
		RequestedDate: requestedDate,
		RequestedTime: requestedTime,
		StudentCount:  r.StudentCount,
		ContactName:   r.ContactName,
		ContactEmail:  r.ContactEmail,
		ContactPhone:  r.ContactPhone,
		Notes:         r.Notes,
		Students:      students,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:              resp.ID,
		Reference:       resp.Reference,
		ProgramID:       resp.ProgramID,
		SchoolUserID:    resp.SchoolUserID,
		RequestedDate:   resp.RequestedDate,
		RequestedTime:   resp.RequestedTime.String(),
		StudentCount:    resp.StudentCount,
		Status:          resp.Status,
		ProgramTitle:    resp.ProgramTitle,
		PricePerStudent: resp.PricePerStudent,
		TotalPrice:      resp.TotalPrice,
		Notes:           resp.Notes,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
	}
}
