package service

import (
	"context"
	"time"

	"Mansoor88-6/schedule-tracker/internal/repository"
	"Mansoor88-6/schedule-tracker/internal/timeutil"

	"go.uber.org/zap"
)

// RepairSummary counts what a date repair pass saw and did.
type RepairSummary struct {
	Scanned     int  `json:"scanned"`
	NeedsChange int  `json:"needs_change"`
	Updated     int  `json:"updated"`
	Unchanged   int  `json:"unchanged"`
	Errors      int  `json:"errors"`
	Applied     bool `json:"applied"`
}

// MaintenanceService rewrites stored log dates so that each equals the local
// calendar day of started_at. Rows written while the wall clock was
// misinterpreted as UTC end up on the wrong day otherwise.
type MaintenanceService struct {
	logs      *repository.TimeLogRepository
	loc       *time.Location
	batchSize int
	logger    *zap.Logger
}

func NewMaintenanceService(logs *repository.TimeLogRepository, loc *time.Location, batchSize int, logger *zap.Logger) *MaintenanceService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &MaintenanceService{logs: logs, loc: loc, batchSize: batchSize, logger: logger}
}

// RepairDates scans every log. Without apply it only counts.
func (s *MaintenanceService) RepairDates(ctx context.Context, apply bool) (*RepairSummary, error) {
	sum := &RepairSummary{Applied: apply}
	after := ""
	for {
		batch, err := s.logs.ListDatesAfter(ctx, after, s.batchSize)
		if err != nil {
			return sum, err
		}
		if len(batch) == 0 {
			break
		}

		for _, row := range batch {
			sum.Scanned++
			want := timeutil.FormatDate(row.StartedAt.In(s.loc))
			if row.Date == want {
				sum.Unchanged++
				continue
			}
			sum.NeedsChange++
			if !apply {
				continue
			}
			if err := s.logs.SetDate(ctx, row.ID, want); err != nil {
				sum.Errors++
				s.logger.Error("Failed to repair log date", zap.String("log_id", row.ID), zap.Error(err))
				continue
			}
			sum.Updated++
		}

		after = batch[len(batch)-1].ID
		s.logger.Debug("Processed log batch", zap.Int("size", len(batch)), zap.Int("scanned", sum.Scanned))
	}

	s.logger.Info("Log date repair finished",
		zap.Bool("applied", apply),
		zap.Int("scanned", sum.Scanned),
		zap.Int("needs_change", sum.NeedsChange),
		zap.Int("updated", sum.Updated),
		zap.Int("errors", sum.Errors),
	)
	return sum, nil
}
