package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormETLLogRepository implements ETLLogRepository on top of any gorm dialect.
type GormETLLogRepository struct {
	db *gorm.DB
}

// NewGormETLLogRepository creates a GormETLLogRepository.
func NewGormETLLogRepository(db *gorm.DB) *GormETLLogRepository {
	return &GormETLLogRepository{db: db}
}

// CreateETLLogTable creates or upgrades etl_run_log.
func (r *GormETLLogRepository) CreateETLLogTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&ETLRunLog{}); err != nil {
		return fmt.Errorf("create etl_run_log: %w", err)
	}
	return nil
}

// CreateLogEntry inserts an in-progress run.
func (r *GormETLLogRepository) CreateLogEntry(ctx context.Context, mode string, startTime time.Time) (string, error) {
	entry := ETLRunLog{
		ID:        uuid.NewString(),
		Mode:      mode,
		StartTime: startTime.UTC(),
		Status:    RunStatusInProgress,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return "", fmt.Errorf("create run log entry: %w", err)
	}
	return entry.ID, nil
}

// UpdateLogEntrySuccess marks a run successful.
func (r *GormETLLogRepository) UpdateLogEntrySuccess(ctx context.Context, id string, endTime time.Time, stats RunStats) error {
	elapsed, err := r.elapsedSince(ctx, id, endTime)
	if err != nil {
		return err
	}

	end := endTime.UTC()
	err = r.db.WithContext(ctx).Model(&ETLRunLog{}).Where("run_id = ?", id).Updates(map[string]interface{}{
		"end_time":               &end,
		"status":                 RunStatusSuccess,
		"customers_loaded":       stats.CustomersLoaded,
		"orders_loaded":          stats.OrdersLoaded,
		"orphan_orders":          stats.OrphanOrders,
		"reports_digest":         stats.ReportsDigest,
		"reports_snapshot":       stats.ReportsSnapshot,
		"execution_time_seconds": elapsed,
	}).Error
	if err != nil {
		return fmt.Errorf("update run log entry %s: %w", id, err)
	}
	return nil
}

// UpdateLogEntryFailure marks a run failed.
func (r *GormETLLogRepository) UpdateLogEntryFailure(ctx context.Context, id string, endTime time.Time, errorMessage string) error {
	elapsed, err := r.elapsedSince(ctx, id, endTime)
	if err != nil {
		return err
	}

	end := endTime.UTC()
	err = r.db.WithContext(ctx).Model(&ETLRunLog{}).Where("run_id = ?", id).Updates(map[string]interface{}{
		"end_time":               &end,
		"status":                 RunStatusFailed,
		"error_message":          errorMessage,
		"execution_time_seconds": elapsed,
	}).Error
	if err != nil {
		return fmt.Errorf("update run log entry %s: %w", id, err)
	}
	return nil
}

// GetLastSuccessfulRun returns the most recently finished successful run.
func (r *GormETLLogRepository) GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error) {
	var entry ETLRunLog
	err := r.db.WithContext(ctx).
		Where("status = ?", RunStatusSuccess).
		Order("end_time DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last successful run: %w", err)
	}
	return &entry, nil
}

func (r *GormETLLogRepository) elapsedSince(ctx context.Context, id string, endTime time.Time) (float64, error) {
	var entry ETLRunLog
	if err := r.db.WithContext(ctx).Select("start_time").Where("run_id = ?", id).First(&entry).Error; err != nil {
		return 0, fmt.Errorf("read start of run %s: %w", id, err)
	}
	return endTime.Sub(entry.StartTime).Seconds(), nil
}
