package models

import "time"

// TemperatureReading represents temperature sensor data
type TemperatureReading struct {
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Value     float64   `json:"value"` // Celsius
}

// HumidityReading represents humidity sensor data
type HumidityReading struct {
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Value     float64   `json:"value"` // Percentage 0-100
}

// SensorPair is one complete temperature/humidity sample for a device.
// It is what the edge intake hands to the escalation controller.
type SensorPair struct {
	Timestamp   time.Time `json:"timestamp"`
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"` // Celsius
	Humidity    float64   `json:"humidity"`    // Percentage 0-100
	Source      string    `json:"source"`      // mqtt, serial or http
}

// UploadStatus records the outcome of one telemetry delivery attempt
type UploadStatus struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Endpoint   string `json:"endpoint"`
	Response   any    `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
}
