package models

import (
	"time"

	"github.com/sparkedu/spark-scheduler/internal/domain"
)

// GetProgramStatisticsRequest запрос на получение статистики программы
type GetProgramStatisticsRequest struct {
	ProgramID int64
	FromDate  time.Time
	ToDate    time.Time
}

// ProgramStatisticsResponse статистика утилизации слотов программы
type ProgramStatisticsResponse struct {
	ProgramID        int64   `json:"programId"`
	FromDate         string  `json:"fromDate"`
	ToDate           string  `json:"toDate"`
	TotalSlots       int     `json:"totalSlots"`
	AvailableSlots   int     `json:"availableSlots"`
	FullyBookedSlots int     `json:"fullyBookedSlots"`
	TotalBookings    int     `json:"totalBookings"`
	TotalCapacity    int     `json:"totalCapacity"`
	UtilizationRate  float64 `json:"utilizationRate"`
	AvailabilityRate float64 `json:"availabilityRate"`
}

// FromDomainStatistics конвертирует доменную статистику в ответ сервиса
func FromDomainStatistics(stats domain.ProgramStatistics) *ProgramStatisticsResponse {
	return &ProgramStatisticsResponse{
		ProgramID:        stats.ProgramID,
		FromDate:         stats.FromDate.Format(domain.DateFormat),
		ToDate:           stats.ToDate.Format(domain.DateFormat),
		TotalSlots:       stats.TotalSlots,
		AvailableSlots:   stats.AvailableSlots,
		FullyBookedSlots: stats.FullyBookedSlots,
		TotalBookings:    stats.TotalBookings,
		TotalCapacity:    stats.TotalCapacity,
		UtilizationRate:  stats.UtilizationRate,
		AvailabilityRate: stats.AvailabilityRate,
	}
}
