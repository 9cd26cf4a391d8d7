package cancel_booking

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	ID                 int64  `json:"id"`
	Reference          string `json:"reference"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellationReason"`
}
