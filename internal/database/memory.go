package database

import (
	"context"
	"sort"
	"sync"

	"hazard-monitor/internal/models"
)

// MemoryStore keeps records in process. It implements Store with the same
// filtering and ordering as ClickHouseDB.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []models.SensorRecord
	alerts   []models.AlertRecord
	statuses []models.SensorStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveSensorRecord(ctx context.Context, rec *models.SensorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

func (m *MemoryStore) ListSensorRecords(ctx context.Context, filter SensorRecordFilter) ([]models.SensorRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.SensorRecord
	for _, rec := range m.records {
		if filter.AlertLevel == "" || rec.AlertLevel == filter.AlertLevel {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return truncate(out, limitOrDefault(filter.Limit, 50)), nil
}

func (m *MemoryStore) SaveAlert(ctx context.Context, rec *models.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, *rec)
	return nil
}

func (m *MemoryStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.AlertRecord
	for _, rec := range m.alerts {
		if filter.AlertType == "" || rec.AlertType == filter.AlertType {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return truncate(out, limitOrDefault(filter.Limit, 100)), nil
}

func (m *MemoryStore) SaveSensorStatus(ctx context.Context, st *models.SensorStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, *st)
	return nil
}

func (m *MemoryStore) ListSensorStatus(ctx context.Context, filter StatusFilter) ([]models.SensorStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.SensorStatus
	for _, st := range m.statuses {
		if !filter.OnlyProblems || st.HasAlert {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return truncate(out, limitOrDefault(filter.Limit, 50)), nil
}

func (m *MemoryStore) Close() error { return nil }

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
