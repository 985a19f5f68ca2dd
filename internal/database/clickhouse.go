package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"hazard-monitor/internal/models"
)

// decimalScale matches the Decimal64(6) columns
const decimalScale = 6

type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(addr, database, username, password string) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", addr)

	db := &ClickHouseDB{conn: conn}

	// Initialize schema
	if err := db.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// SaveSensorRecord saves one ingested telemetry record
func (db *ClickHouseDB) SaveSensorRecord(ctx context.Context, rec *models.SensorRecord) error {
	batch, err := db.conn.PrepareBatch(ctx, "INSERT INTO sensor_data")
	if err != nil {
		return fmt.Errorf("failed to prepare sensor record insert: %w", err)
	}

	conditions := rec.DangerConditions
	if conditions == nil {
		conditions = []string{}
	}

	err = batch.Append(
		rec.ID,
		rec.Timestamp,
		rec.DeviceID,
		rec.Temperature.Round(decimalScale),
		rec.Humidity.Round(decimalScale),
		rec.ProbabilityVapor.Round(decimalScale),
		rec.ProbabilitySmog.Round(decimalScale),
		rec.ProbabilitySmoke.Round(decimalScale),
		rec.ProbabilityFog.Round(decimalScale),
		rec.Alert,
		rec.DangerAlert,
		string(rec.AlertLevel),
		conditions,
	)
	if err != nil {
		return fmt.Errorf("failed to append sensor record: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert sensor record: %w", err)
	}

	return nil
}

// ListSensorRecords returns sensor records newest first
func (db *ClickHouseDB) ListSensorRecords(ctx context.Context, filter SensorRecordFilter) ([]models.SensorRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.AlertLevel != "" {
		where = append(where, "alert_level = ?")
		args = append(args, string(filter.AlertLevel))
	}

	query := `
		SELECT id, timestamp, device_id, temperature, humidity,
			probability_vapor, probability_smog, probability_smoke, probability_fog,
			alert, danger_alert, alert_level, danger_conditions
		FROM sensor_data` + whereClause(where) + `
		ORDER BY timestamp DESC
		LIMIT ?
	`
	args = append(args, limitOrDefault(filter.Limit, 50))

	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor records: %w", err)
	}
	defer rows.Close()

	var records []models.SensorRecord
	for rows.Next() {
		var (
			rec   models.SensorRecord
			level string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.DeviceID, &rec.Temperature, &rec.Humidity,
			&rec.ProbabilityVapor, &rec.ProbabilitySmog, &rec.ProbabilitySmoke, &rec.ProbabilityFog,
			&rec.Alert, &rec.DangerAlert, &level, &rec.DangerConditions,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sensor record: %w", err)
		}
		rec.AlertLevel = models.AlertLevel(level)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sensor records: %w", err)
	}
	return records, nil
}

// SaveAlert saves a dispatched alert
func (db *ClickHouseDB) SaveAlert(ctx context.Context, rec *models.AlertRecord) error {
	query := `
		INSERT INTO alerts (alert_id, timestamp, alert_type, subject, message, payload, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		rec.AlertID,
		rec.Timestamp,
		string(rec.AlertType),
		rec.Subject,
		rec.Message,
		rec.Payload,
		rec.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// ListAlerts returns dispatched alerts newest first
func (db *ClickHouseDB) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AlertRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.AlertType != "" {
		where = append(where, "alert_type = ?")
		args = append(args, string(filter.AlertType))
	}

	query := `
		SELECT alert_id, timestamp, alert_type, subject, message, payload, status
		FROM alerts` + whereClause(where) + `
		ORDER BY timestamp DESC
		LIMIT ?
	`
	args = append(args, limitOrDefault(filter.Limit, 100))

	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		var (
			rec       models.AlertRecord
			alertType string
		)
		if err := rows.Scan(&rec.AlertID, &rec.Timestamp, &alertType, &rec.Subject, &rec.Message, &rec.Payload, &rec.Status); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		rec.AlertType = models.AlertType(alertType)
		alerts = append(alerts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}
	return alerts, nil
}

// SaveSensorStatus saves an equipment health report
func (db *ClickHouseDB) SaveSensorStatus(ctx context.Context, st *models.SensorStatus) error {
	names := make([]string, len(st.StatusCameras))
	statuses := make([]bool, len(st.StatusCameras))
	for i, cam := range st.StatusCameras {
		names[i] = cam.Camera
		statuses[i] = cam.Status
	}

	batch, err := db.conn.PrepareBatch(ctx, "INSERT INTO sensor_status")
	if err != nil {
		return fmt.Errorf("failed to prepare sensor status insert: %w", err)
	}

	err = batch.Append(
		st.ID,
		st.Timestamp,
		st.Alert,
		st.HasAlert,
		st.StatusSensorHumidity,
		st.StatusSensorTemperature,
		names,
		statuses,
		st.SensorsOK,
		st.CamerasOK,
		st.AllSystemsOperational,
	)
	if err != nil {
		return fmt.Errorf("failed to append sensor status: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert sensor status: %w", err)
	}

	return nil
}

// ListSensorStatus returns status reports newest first
func (db *ClickHouseDB) ListSensorStatus(ctx context.Context, filter StatusFilter) ([]models.SensorStatus, error) {
	var where []string
	if filter.OnlyProblems {
		where = append(where, "has_alert = true")
	}

	query := `
		SELECT id, timestamp, alert, has_alert, status_sensor_humidity, status_sensor_temperature,
			camera_names, camera_statuses, sensors_ok, cameras_ok, all_systems_operational
		FROM sensor_status` + whereClause(where) + `
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.conn.Query(ctx, query, limitOrDefault(filter.Limit, 50))
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor status: %w", err)
	}
	defer rows.Close()

	var reports []models.SensorStatus
	for rows.Next() {
		var (
			st       models.SensorStatus
			names    []string
			statuses []bool
		)
		if err := rows.Scan(
			&st.ID, &st.Timestamp, &st.Alert, &st.HasAlert, &st.StatusSensorHumidity, &st.StatusSensorTemperature,
			&names, &statuses, &st.SensorsOK, &st.CamerasOK, &st.AllSystemsOperational,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sensor status: %w", err)
		}

		st.StatusCameras = make([]models.CameraStatus, 0, len(names))
		for i, name := range names {
			cam := models.CameraStatus{Camera: name}
			if i < len(statuses) {
				cam.Status = statuses[i]
			}
			st.StatusCameras = append(st.StatusCameras, cam)
		}
		reports = append(reports, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sensor status: %w", err)
	}
	return reports, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		log.Println("ClickHouse connection closed")
	}
	return nil
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "\n\t\tWHERE " + strings.Join(conditions, " AND ")
}

func limitOrDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
