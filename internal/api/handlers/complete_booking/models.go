package complete_booking

// CompleteBookingRequest HTTP request model
type CompleteBookingRequest struct {
	Rating   int     `json:"rating"`
	Feedback *string `json:"feedback,omitempty"`
}
