package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hazard-monitor/internal/detection"
	"hazard-monitor/internal/models"
)

type stubDetector struct {
	calls int
}

func (d *stubDetector) EarlyDetection(ctx context.Context, temperature, humidity float64) detection.Result {
	d.calls++
	return detection.Result{
		SensorData: detection.SensorData{Temperature: temperature, Humidity: humidity},
		Message:    "Normal conditions - Basic data uploaded to cloud (no video analysis)",
	}
}

func TestIndexHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	IndexHandler()(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"message":"Hello, World!"}}`, rec.Body.String())
}

func TestEarlyDetectionValidation(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"", "Missing required parameter: temperature"},
		{"?humidity=50", "Missing required parameter: temperature"},
		{"?temperature=20", "Missing required parameter: humidity"},
		{"?temperature=warm&humidity=50", "Invalid parameter: temperature"},
		{"?temperature=20&humidity=wet", "Invalid parameter: humidity"},
		{"?temperature=161&humidity=50", "Temperature out of valid range (-50 to 160°C)"},
		{"?temperature=-51&humidity=50", "Temperature out of valid range (-50 to 160°C)"},
		{"?temperature=NaN&humidity=50", "Temperature out of valid range (-50 to 160°C)"},
		{"?temperature=20&humidity=100.5", "Humidity out of valid range (0-100%)"},
		{"?temperature=20&humidity=-1", "Humidity out of valid range (0-100%)"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			detector := &stubDetector{}
			rec := httptest.NewRecorder()
			EarlyDetectionHandler(detector)(rec, httptest.NewRequest(http.MethodGet, "/early-detection"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.want, body["error"])
			assert.Zero(t, detector.calls)
		})
	}
}

func TestEarlyDetectionSuccess(t *testing.T) {
	detector := &stubDetector{}
	rec := httptest.NewRecorder()
	EarlyDetectionHandler(detector)(rec, httptest.NewRequest(http.MethodGet, "/early-detection?temperature=-50&humidity=100", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, detector.calls)

	var body struct {
		Success bool             `json:"success"`
		Data    detection.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, -50.0, body.Data.SensorData.Temperature)
	assert.Equal(t, 100.0, body.Data.SensorData.Humidity)
}

func TestParseManualAlert(t *testing.T) {
	alert, err := parseManualAlert([]byte(`{
		"alert_type": "SENSOR_MALFUNCTION",
		"failed_cameras": ["east"],
		"operator": "night shift",
		"priority": 2
	}`))
	require.NoError(t, err)

	assert.Equal(t, models.AlertTypeSensorMalfunction, alert.Type)
	assert.Equal(t, []string{"east"}, alert.Details.FailedCameras)
	assert.Equal(t, map[string]any{"operator": "night shift", "priority": 2.0}, alert.Details.Extra)

	_, err = parseManualAlert([]byte(`{"conditions": "not a list"}`))
	assert.Error(t, err)
}
