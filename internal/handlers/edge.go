package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"hazard-monitor/internal/detection"
)

// Detector runs one early-detection cycle
type Detector interface {
	EarlyDetection(ctx context.Context, temperature, humidity float64) detection.Result
}

type detectionResponse struct {
	Success bool              `json:"success"`
	Data    *detection.Result `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// IndexHandler is the edge health check
func IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]string{"message": "Hello, World!"},
		})
	}
}

// EarlyDetectionHandler validates a reading and runs the escalation controller
func EarlyDetectionHandler(detector Detector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(message string) {
			writeJSON(w, http.StatusBadRequest, detectionResponse{Success: false, Error: message})
		}

		temperature, msg := floatParam(r, "temperature")
		if msg != "" {
			fail(msg)
			return
		}
		humidity, msg := floatParam(r, "humidity")
		if msg != "" {
			fail(msg)
			return
		}

		if !(temperature >= -50 && temperature <= 160) {
			fail("Temperature out of valid range (-50 to 160°C)")
			return
		}
		if !(humidity >= 0 && humidity <= 100) {
			fail("Humidity out of valid range (0-100%)")
			return
		}

		result := detector.EarlyDetection(r.Context(), temperature, humidity)
		writeJSON(w, http.StatusOK, detectionResponse{Success: true, Data: &result})
	}
}

// floatParam returns the parsed value or the validation message
func floatParam(r *http.Request, key string) (float64, string) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Sprintf("Missing required parameter: %s", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Sprintf("Invalid parameter: %s", key)
	}
	return v, ""
}
