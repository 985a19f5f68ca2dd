package models

import "time"

// AlertType tags what kind of alert is dispatched
type AlertType string

const (
	AlertTypeDangerThreshold   AlertType = "DANGER_THRESHOLD_EXCEEDED"
	AlertTypeSensorMalfunction AlertType = "SENSOR_MALFUNCTION"
	AlertTypeGeneral           AlertType = "GENERAL_ALERT"
)

// Alert is handed to the dispatcher
type Alert struct {
	Type      AlertType    `json:"alert_type"`
	Timestamp time.Time    `json:"timestamp"`
	Details   AlertDetails `json:"details"`
}

// AlertDetails carries the type-specific part of an alert. Only the fields
// relevant to the alert type are set.
type AlertDetails struct {
	// DANGER_THRESHOLD_EXCEEDED
	Conditions []string         `json:"conditions,omitempty"`
	SensorData *AlertSensorData `json:"sensor_data,omitempty"`

	// SENSOR_MALFUNCTION
	FailedSensors []string `json:"failed_sensors,omitempty"`
	FailedCameras []string `json:"failed_cameras,omitempty"`
	RecordID      string   `json:"record_id,omitempty"`

	// Anything else a manual alert carries
	Extra map[string]any `json:"extra,omitempty"`
}

// AlertSensorData is the snapshot of readings attached to a threshold alert
type AlertSensorData struct {
	Temperature      float64 `json:"temperature"`
	Humidity         float64 `json:"humidity"` // Fraction 0-1
	ProbabilitySmoke float64 `json:"probability_smoke"`
	ProbabilityFog   float64 `json:"probability_fog"`
	Alert            string  `json:"alert"`
	DangerAlert      string  `json:"danger_alert"`
}

// Alert delivery statuses
const (
	AlertStatusSent   = "sent"
	AlertStatusFailed = "failed"
)

// AlertRecord is one dispatched alert as stored by the cloud
type AlertRecord struct {
	AlertID   string    `json:"alert_id"`
	Timestamp time.Time `json:"timestamp"`
	AlertType AlertType `json:"alert_type"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Payload   string    `json:"payload"` // JSON encoded Alert
	Status    string    `json:"status"`
}
