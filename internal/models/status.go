package models

import (
	"encoding/json"
	"time"
)

// CameraStatus is the health flag of one camera
type CameraStatus struct {
	Camera string `json:"camera"`
	Status bool   `json:"status"`
}

// RequiredStatusFields are checked in this order on status ingestion
var RequiredStatusFields = []string{
	"alert",
	"status_sensor_humidity",
	"status_sensor_temperature",
	"status_cameras",
}

// SensorStatus is one health report of the field equipment
type SensorStatus struct {
	ID                      string         `json:"id"`
	Timestamp               time.Time      `json:"timestamp"`
	Alert                   bool           `json:"alert"`
	HasAlert                bool           `json:"has_alert"`
	StatusSensorHumidity    bool           `json:"status_sensor_humidity"`
	StatusSensorTemperature bool           `json:"status_sensor_temperature"`
	StatusCameras           []CameraStatus `json:"status_cameras"`
	SensorsOK               bool           `json:"sensors_ok"`
	CamerasOK               bool           `json:"cameras_ok"`
	AllSystemsOperational   bool           `json:"all_systems_operational"`
}

// ParseSensorStatus decodes a status envelope and derives the health flags.
// ID and Timestamp are left for the caller.
func ParseSensorStatus(body []byte) (SensorStatus, error) {
	data, err := decodeEnvelope(body, RequiredStatusFields)
	if err != nil {
		return SensorStatus{}, err
	}

	var st SensorStatus
	fields := []struct {
		name   string
		target any
	}{
		{"alert", &st.Alert},
		{"status_sensor_humidity", &st.StatusSensorHumidity},
		{"status_sensor_temperature", &st.StatusSensorTemperature},
		{"status_cameras", &st.StatusCameras},
	}
	for _, f := range fields {
		if err := json.Unmarshal(data[f.name], f.target); err != nil {
			return SensorStatus{}, &PayloadError{Field: f.name, Err: err}
		}
	}

	st.Evaluate()
	return st, nil
}

// Evaluate derives SensorsOK, CamerasOK, HasAlert and AllSystemsOperational
// from the raw flags. A report with no cameras counts as cameras OK.
func (s *SensorStatus) Evaluate() {
	s.SensorsOK = s.StatusSensorHumidity && s.StatusSensorTemperature

	s.CamerasOK = true
	for _, cam := range s.StatusCameras {
		if !cam.Status {
			s.CamerasOK = false
			break
		}
	}

	s.AllSystemsOperational = s.SensorsOK && s.CamerasOK
	s.HasAlert = s.Alert || !s.AllSystemsOperational
}

// FailedSensors names the sensors reporting a fault
func (s SensorStatus) FailedSensors() []string {
	var failed []string
	if !s.StatusSensorHumidity {
		failed = append(failed, "Humidity sensor")
	}
	if !s.StatusSensorTemperature {
		failed = append(failed, "Temperature sensor")
	}
	return failed
}

// FailedCameras names the cameras reporting a fault
func (s SensorStatus) FailedCameras() []string {
	var failed []string
	for _, cam := range s.StatusCameras {
		if !cam.Status {
			name := cam.Camera
			if name == "" {
				name = "Unknown"
			}
			failed = append(failed, name)
		}
	}
	return failed
}
