package domain

import "time"

// BookingStudent is a roster entry owned by a booking
type BookingStudent struct {
	ID              int64
	BookingID       int64
	Name            string
	GradeLevel      string
	GuardianContact string
	CreatedAt       time.Time
}
