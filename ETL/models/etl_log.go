package models

import (
	"context"
	"time"
)

const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog is one row of the persistent run history.
type ETLRunLog struct {
	ID                   string     `gorm:"column:run_id;primaryKey;size:36" json:"run_id"`
	Mode                 string     `gorm:"size:16;not null" json:"mode"`
	StartTime            time.Time  `gorm:"not null" json:"start_time"`
	EndTime              *time.Time `json:"end_time,omitempty"`
	Status               string     `gorm:"size:16;not null;index" json:"status"`
	CustomersLoaded      int        `json:"customers_loaded"`
	OrdersLoaded         int        `json:"orders_loaded"`
	OrphanOrders         int        `json:"orphan_orders"`
	ErrorMessage         string     `gorm:"type:text" json:"error_message,omitempty"`
	ExecutionTimeSeconds float64    `json:"execution_time_seconds"`
	ReportsDigest        string     `gorm:"size:64" json:"reports_digest,omitempty"`
	ReportsSnapshot      []byte     `json:"-"`
}

// TableName pins the table name used by gorm.
func (ETLRunLog) TableName() string { return "etl_run_log" }

// RunStats are the counters written when a run succeeds.
type RunStats struct {
	CustomersLoaded int
	OrdersLoaded    int
	OrphanOrders    int
	ReportsDigest   string
	ReportsSnapshot []byte
}

// ETLLogRepository stores the history of persistent-mode runs.
type ETLLogRepository interface {
	// CreateLogEntry records the start of a run and returns its id
	CreateLogEntry(ctx context.Context, mode string, startTime time.Time) (string, error)

	// UpdateLogEntrySuccess closes a run with its counters and report snapshot
	UpdateLogEntrySuccess(ctx context.Context, id string, endTime time.Time, stats RunStats) error

	// UpdateLogEntryFailure closes a run with the fatal error
	UpdateLogEntryFailure(ctx context.Context, id string, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun returns nil, nil when no run has succeeded yet
	GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error)
}
