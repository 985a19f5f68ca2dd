package database

// SQL schemas for all ClickHouse tables

const (
	// SensorDataTableSQL creates the sensor_data table: one row per ingested telemetry envelope
	SensorDataTableSQL = `
		CREATE TABLE IF NOT EXISTS sensor_data (
			id String,
			timestamp DateTime64(3, 'UTC'),
			device_id String,
			temperature Decimal64(6),
			humidity Decimal64(6),
			probability_vapor Decimal64(6),
			probability_smog Decimal64(6),
			probability_smoke Decimal64(6),
			probability_fog Decimal64(6),
			alert String,
			danger_alert String,
			alert_level LowCardinality(String),
			danger_conditions Array(String)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(timestamp)
		ORDER BY (alert_level, timestamp)
	`

	// AlertsTableSQL creates the alerts table: one row per dispatched alert
	AlertsTableSQL = `
		CREATE TABLE IF NOT EXISTS alerts (
			alert_id String,
			timestamp DateTime64(3, 'UTC'),
			alert_type LowCardinality(String),
			subject String,
			message String,
			payload String,
			status LowCardinality(String)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(timestamp)
		ORDER BY (alert_type, timestamp)
	`

	// SensorStatusTableSQL creates the sensor_status table: equipment health reports
	SensorStatusTableSQL = `
		CREATE TABLE IF NOT EXISTS sensor_status (
			id String,
			timestamp DateTime64(3, 'UTC'),
			alert Bool,
			has_alert Bool,
			status_sensor_humidity Bool,
			status_sensor_temperature Bool,
			camera_names Array(String),
			camera_statuses Array(Bool),
			sensors_ok Bool,
			cameras_ok Bool,
			all_systems_operational Bool
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(timestamp)
		ORDER BY (has_alert, timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		SensorDataTableSQL,
		AlertsTableSQL,
		SensorStatusTableSQL,
	}
}
