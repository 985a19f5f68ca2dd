package database

import (
	"context"

	"hazard-monitor/internal/models"
)

// Store persists the cloud's records. ClickHouseDB is the production
// implementation; MemoryStore serves tests and broker-less runs.
type Store interface {
	SaveSensorRecord(ctx context.Context, rec *models.SensorRecord) error
	ListSensorRecords(ctx context.Context, filter SensorRecordFilter) ([]models.SensorRecord, error)

	SaveAlert(ctx context.Context, rec *models.AlertRecord) error
	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AlertRecord, error)

	SaveSensorStatus(ctx context.Context, st *models.SensorStatus) error
	ListSensorStatus(ctx context.Context, filter StatusFilter) ([]models.SensorStatus, error)

	Close() error
}

// SensorRecordFilter selects sensor records, newest first
type SensorRecordFilter struct {
	Limit      int
	AlertLevel models.AlertLevel // empty for all levels
}

// AlertFilter selects dispatched alerts, newest first
type AlertFilter struct {
	Limit     int
	AlertType models.AlertType // empty for all types
}

// StatusFilter selects status reports, newest first
type StatusFilter struct {
	Limit        int
	OnlyProblems bool
}
