package domain

import "time"

// SlotAggregates сырые агрегаты по слотам программы за период
type SlotAggregates struct {
	TotalSlots       int
	AvailableSlots   int
	FullyBookedSlots int
	TotalBookings    int // суммарный current_bookings
	TotalCapacity    int // суммарный max_bookings
}

// ProgramStatistics derived utilization metrics over a program's slots
type ProgramStatistics struct {
	ProgramID int64
	FromDate  time.Time
	ToDate    time.Time

	TotalSlots       int
	AvailableSlots   int
	FullyBookedSlots int
	TotalBookings    int
	TotalCapacity    int

	UtilizationRate  float64 // totalBookings / totalCapacity, 0 при нулевой емкости
	AvailabilityRate float64 // availableSlots / totalSlots, 0 при отсутствии слотов
}

// NewProgramStatistics вычисляет производные метрики из сырых агрегатов
func NewProgramStatistics(programID int64, from, to time.Time, agg SlotAggregates) ProgramStatistics {
	stats := ProgramStatistics{
		ProgramID:        programID,
		FromDate:         from,
		ToDate:           to,
		TotalSlots:       agg.TotalSlots,
		AvailableSlots:   agg.AvailableSlots,
		FullyBookedSlots: agg.FullyBookedSlots,
		TotalBookings:    agg.TotalBookings,
		TotalCapacity:    agg.TotalCapacity,
	}

	if agg.TotalCapacity > 0 {
		stats.UtilizationRate = float64(agg.TotalBookings) / float64(agg.TotalCapacity)
	}
	if agg.TotalSlots > 0 {
		stats.AvailabilityRate = float64(agg.AvailableSlots) / float64(agg.TotalSlots)
	}

	return stats
}
