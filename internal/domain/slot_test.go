package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sparkedu/spark-scheduler/pkg/types"
)

func TestAvailabilitySlot_Overlaps(t *testing.T) {
	slot := &AvailabilitySlot{
		StartTime: types.TimeString("10:00"),
		EndTime:   types.TimeString("12:00"),
	}

	cases := []struct {
		name     string
		start    string
		end      string
		overlaps bool
	}{
		{"полное совпадение", "10:00", "12:00", true},
		{"интервал внутри слота", "10:30", "11:30", true},
		{"слот внутри интервала", "09:00", "13:00", true},
		{"пересечение слева", "09:00", "10:30", true},
		{"пересечение справа", "11:30", "13:00", true},
		{"вплотную слева", "08:00", "10:00", false},
		{"вплотную справа", "12:00", "14:00", false},
		{"целиком раньше", "07:00", "08:00", false},
		{"целиком позже", "13:00", "14:00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := slot.Overlaps(types.TimeString(tc.start), types.TimeString(tc.end))
			assert.Equal(t, tc.overlaps, got)
		})
	}
}

func TestAvailabilitySlot_Capacity(t *testing.T) {
	slot := &AvailabilitySlot{MaxBookings: 3, CurrentBookings: 2, IsAvailable: true}
	assert.False(t, slot.IsFull())
	assert.True(t, slot.HasCapacity())
	assert.Equal(t, 1, slot.AvailableBookings())

	slot.CurrentBookings = 3
	assert.True(t, slot.IsFull())
	assert.False(t, slot.HasCapacity())
	assert.Equal(t, 0, slot.AvailableBookings())

	// Заблокированный оператором слот не принимает бронирования даже с местами
	slot = &AvailabilitySlot{MaxBookings: 3, CurrentBookings: 0, IsAvailable: false}
	assert.False(t, slot.HasCapacity())
	assert.Equal(t, 3, slot.AvailableBookings())

	// Счетчик выше вместимости не дает отрицательной доступности
	slot = &AvailabilitySlot{MaxBookings: 2, CurrentBookings: 5, IsAvailable: true}
	assert.Equal(t, 0, slot.AvailableBookings())
}

func TestNewProgramStatistics(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	stats := NewProgramStatistics(7, from, to, SlotAggregates{
		TotalSlots:       10,
		AvailableSlots:   8,
		FullyBookedSlots: 2,
		TotalBookings:    6,
		TotalCapacity:    20,
	})

	assert.Equal(t, int64(7), stats.ProgramID)
	assert.InDelta(t, 0.3, stats.UtilizationRate, 0.001)
	assert.InDelta(t, 0.8, stats.AvailabilityRate, 0.001)

	// Нулевая емкость и отсутствие слотов не приводят к делению на ноль
	empty := NewProgramStatistics(7, from, to, SlotAggregates{})
	assert.Zero(t, empty.UtilizationRate)
	assert.Zero(t, empty.AvailabilityRate)
}
