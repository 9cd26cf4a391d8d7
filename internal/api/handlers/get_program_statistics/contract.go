package get_program_statistics

import (
	"context"

	"github.com/sparkedu/spark-scheduler/internal/service/statistics/models"
)

type StatisticsService interface {
	GetProgramStatistics(ctx context.Context, req *models.GetProgramStatisticsRequest) (*models.ProgramStatisticsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
