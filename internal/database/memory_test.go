package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hazard-monitor/internal/models"
)

var _ Store = (*MemoryStore)(nil)
var _ Store = (*ClickHouseDB)(nil)

func TestMemoryStoreSensorRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	levels := []models.AlertLevel{models.AlertLevelNormal, models.AlertLevelDanger, models.AlertLevelDanger, models.AlertLevelNormal}
	for i, level := range levels {
		require.NoError(t, store.SaveSensorRecord(ctx, &models.SensorRecord{
			ID:         string(rune('a' + i)),
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			AlertLevel: level,
		}))
	}

	all, err := store.ListSensorRecords(ctx, SensorRecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "d", all[0].ID)
	assert.Equal(t, "a", all[3].ID)

	danger, err := store.ListSensorRecords(ctx, SensorRecordFilter{AlertLevel: models.AlertLevelDanger, Limit: 1})
	require.NoError(t, err)
	require.Len(t, danger, 1)
	assert.Equal(t, "c", danger[0].ID)
}

func TestMemoryStoreAlertsAndStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.SaveAlert(ctx, &models.AlertRecord{AlertID: "1", Timestamp: now, AlertType: models.AlertTypeDangerThreshold}))
	require.NoError(t, store.SaveAlert(ctx, &models.AlertRecord{AlertID: "2", Timestamp: now.Add(time.Second), AlertType: models.AlertTypeSensorMalfunction}))

	alerts, err := store.ListAlerts(ctx, AlertFilter{AlertType: models.AlertTypeDangerThreshold})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "1", alerts[0].AlertID)

	require.NoError(t, store.SaveSensorStatus(ctx, &models.SensorStatus{ID: "ok", Timestamp: now}))
	require.NoError(t, store.SaveSensorStatus(ctx, &models.SensorStatus{ID: "bad", Timestamp: now.Add(-time.Minute), HasAlert: true}))

	statuses, err := store.ListSensorStatus(ctx, StatusFilter{})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "ok", statuses[0].ID)

	problems, err := store.ListSensorStatus(ctx, StatusFilter{OnlyProblems: true})
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "bad", problems[0].ID)
}

func TestSchemaTables(t *testing.T) {
	tables := AllTables()
	require.Len(t, tables, 3)
	for _, name := range []string{"sensor_data", "alerts", "sensor_status"} {
		found := false
		for _, sql := range tables {
			if strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+name+" (") {
				found = true
			}
		}
		assert.True(t, found, "missing table %s", name)
	}
}

func TestWhereClause(t *testing.T) {
	assert.Equal(t, "", whereClause(nil))
	assert.Equal(t, "\n\t\tWHERE a = ? AND b = ?", whereClause([]string{"a = ?", "b = ?"}))
	assert.Equal(t, 50, limitOrDefault(0, 50))
	assert.Equal(t, 7, limitOrDefault(7, 50))
}
