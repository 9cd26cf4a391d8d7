package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sparkedu/spark-scheduler/pkg/types"
)

func TestBooking_Transitions(t *testing.T) {
	cases := []struct {
		status       BookingStatus
		canConfirm   bool
		canCancel    bool
		canComplete  bool
		canManage    bool
		terminal     bool
	}{
		{StatusPending, true, true, false, true, false},
		{StatusConfirmed, false, true, true, true, false},
		{StatusCancelled, false, false, false, false, true},
		{StatusCompleted, false, false, false, false, true},
	}

	for _, tc := range cases {
		b := &Booking{Status: tc.status}
		assert.Equal(t, tc.canConfirm, b.CanBeConfirmed(), "CanBeConfirmed for %s", tc.status)
		assert.Equal(t, tc.canCancel, b.CanBeCancelled(), "CanBeCancelled for %s", tc.status)
		assert.Equal(t, tc.canComplete, b.CanBeCompleted(), "CanBeCompleted for %s", tc.status)
		assert.Equal(t, tc.canManage, b.CanManageStudents(), "CanManageStudents for %s", tc.status)
		assert.Equal(t, tc.terminal, b.IsTerminal(), "IsTerminal for %s", tc.status)
	}
}

func TestBooking_IsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).IsActive())
	assert.True(t, (&Booking{Status: StatusConfirmed}).IsActive())
	assert.True(t, (&Booking{Status: StatusCompleted}).IsActive())
	assert.False(t, (&Booking{Status: StatusCancelled}).IsActive())
}

func TestBooking_TotalPrice(t *testing.T) {
	b := &Booking{StudentCount: 25, PricePerStudent: 350.50}
	assert.InDelta(t, 8762.5, b.TotalPrice(), 0.001)

	b = &Booking{StudentCount: 0, PricePerStudent: 100}
	assert.Zero(t, b.TotalPrice())
}

func TestBooking_HasOccurred(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Без подтвержденной даты бронирование не считается состоявшимся
	b := &Booking{Status: StatusConfirmed}
	assert.False(t, b.HasOccurred(now))

	past := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	pastTime := types.TimeString("10:00")
	b = &Booking{ConfirmedDate: &past, ConfirmedTime: &pastTime}
	assert.True(t, b.HasOccurred(now))

	future := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	b = &Booking{ConfirmedDate: &future, ConfirmedTime: &pastTime}
	assert.False(t, b.HasOccurred(now))

	// Тот же день: учитывается подтвержденное время визита
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	morning := types.TimeString("09:00")
	evening := types.TimeString("18:00")
	b = &Booking{ConfirmedDate: &today, ConfirmedTime: &morning}
	assert.True(t, b.HasOccurred(now))
	b = &Booking{ConfirmedDate: &today, ConfirmedTime: &evening}
	assert.False(t, b.HasOccurred(now))
}
