package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"hazard-monitor/internal/models"
	"hazard-monitor/internal/services"
)

const maxBodySize = 1 << 20

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unable to read request body")
		return nil, false
	}
	return body, true
}

// badRequestOrServerError maps validation errors to 400 and everything
// else to 500
func badRequestOrServerError(w http.ResponseWriter, err error) {
	var missing *models.MissingFieldError
	if errors.As(err, &missing) {
		writeError(w, http.StatusBadRequest, missing.Error())
		return
	}

	var payload *models.PayloadError
	if errors.As(err, &payload) {
		writeError(w, http.StatusBadRequest, payload.Error())
		return
	}

	log.Printf("Handler: %v", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// InsertSensorDataHandler ingests one telemetry envelope
func InsertSensorDataHandler(ingest *services.IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}

		rec, err := ingest.Ingest(r.Context(), body)
		if err != nil {
			badRequestOrServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":           "Data inserted successfully",
			"record_id":         rec.ID,
			"timestamp":         rec.Timestamp.Format(time.RFC3339Nano),
			"alert_level":       rec.AlertLevel,
			"danger_conditions": rec.DangerConditions,
		})
	}
}

// GetSensorDataHandler lists stored records, newest first
func GetSensorDataHandler(ingest *services.IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level := models.AlertLevel(r.URL.Query().Get("alert_level"))
		records, err := ingest.SensorRecords(r.Context(), queryInt(r, "limit", 50), level)
		if err != nil {
			badRequestOrServerError(w, err)
			return
		}
		if records == nil {
			records = []models.SensorRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(records), "data": records})
	}
}

// GetAlertsHandler lists the merged alert history
func GetAlertsHandler(ingest *services.IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := ingest.Alerts(r.Context(), queryInt(r, "limit", 100), r.URL.Query().Get("alert_type"))
		if err != nil {
			badRequestOrServerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(alerts), "alerts": alerts})
	}
}

// GetMLDetectionHandler lists per-record class probabilities
func GetMLDetectionHandler(ingest *services.IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detections, err := ingest.Detections(r.Context(), queryInt(r, "limit", 50), queryFloat(r, "min_probability", 0))
		if err != nil {
			badRequestOrServerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(detections), "data": detections})
	}
}

// InsertSensorStatusHandler stores one equipment health report
func InsertSensorStatusHandler(monitor *services.StatusMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}

		st, err := monitor.Record(r.Context(), body)
		if err != nil {
			badRequestOrServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":    "Sensor status inserted successfully",
			"record_id":  st.ID,
			"timestamp":  st.Timestamp.Format(time.RFC3339Nano),
			"has_alert":  st.HasAlert,
			"sensors_ok": st.SensorsOK,
			"cameras_ok": st.CamerasOK,
		})
	}
}

// GetSensorStatusHandler lists recent health reports
func GetSensorStatusHandler(monitor *services.StatusMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := monitor.History(r.Context(), queryInt(r, "limit", 50), queryBool(r, "only_problems"))
		if err != nil {
			badRequestOrServerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}

// CheckSensorStatusHandler runs the malfunction check on demand
func CheckSensorStatusHandler(monitor *services.StatusMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sent, err := monitor.Check(r.Context())
		if err != nil {
			badRequestOrServerError(w, err)
			return
		}

		message := "Sensor verification completed - All systems operational"
		if sent {
			message = "Sensor verification completed - Problems found"
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": message, "alert_sent": sent})
	}
}

// SendAlertHandler dispatches a manually submitted alert. Known keys fill
// the typed details and the rest is carried as extra data.
func SendAlertHandler(dispatcher services.AlertDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}

		alert, err := parseManualAlert(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		record, err := dispatcher.Dispatch(r.Context(), alert)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Alert sent successfully",
			"alert_id":  record.AlertID,
			"timestamp": record.Timestamp.Format(time.RFC3339Nano),
		})
	}
}

func parseManualAlert(body []byte) (models.Alert, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Alert{}, err
	}

	var alert models.Alert
	fields := map[string]any{
		"alert_type":     &alert.Type,
		"timestamp":      &alert.Timestamp,
		"conditions":     &alert.Details.Conditions,
		"sensor_data":    &alert.Details.SensorData,
		"failed_sensors": &alert.Details.FailedSensors,
		"failed_cameras": &alert.Details.FailedCameras,
		"record_id":      &alert.Details.RecordID,
	}

	for key, value := range raw {
		target, known := fields[key]
		if !known {
			if alert.Details.Extra == nil {
				alert.Details.Extra = map[string]any{}
			}
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return models.Alert{}, err
			}
			alert.Details.Extra[key] = v
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return models.Alert{}, err
		}
	}
	return alert, nil
}
