package confirm_booking

import (
	confirmBooking "github.com/sparkedu/spark-scheduler/internal/usecase/confirm_booking"
)

// ConfirmBookingRequest HTTP request model.
// Тело запроса опционально: без slotId слот подбирается по
// запрошенным дате и времени бронирования.
type ConfirmBookingRequest struct {
	SlotID *int64 `json:"slotId,omitempty"`
}

// ConfirmBookingResponse HTTP response model
type ConfirmBookingResponse struct {
	ID            int64   `json:"id"`
	Reference     string  `json:"reference"`
	ProgramID     int64   `json:"programId"`
	SlotID        int64   `json:"slotId"`
	Status        string  `json:"status"`
	ConfirmedDate string  `json:"confirmedDate"`
	ConfirmedTime string  `json:"confirmedTime"`
	StudentCount  int     `json:"studentCount"`
	TotalPrice    float64 `json:"totalPrice"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *confirmBooking.Response) *ConfirmBookingResponse {
	return &ConfirmBookingResponse{
		ID:            resp.ID,
		Reference:     resp.Reference,
		ProgramID:     resp.ProgramID,
		SlotID:        resp.SlotID,
		Status:        resp.Status,
		ConfirmedDate: resp.ConfirmedDate,
		ConfirmedTime: resp.ConfirmedTime.String(),
		StudentCount:  resp.StudentCount,
		TotalPrice:    resp.TotalPrice,
	}
}
