package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertLevel is the cloud-side verdict for one record
type AlertLevel string

const (
	AlertLevelNormal AlertLevel = "NORMAL"
	AlertLevelDanger AlertLevel = "DANGER"
)

// SensorRecord is an ingested telemetry envelope as stored by the cloud.
// Numeric fields keep the exact decimal the edge sent.
type SensorRecord struct {
	ID               string          `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	DeviceID         string          `json:"device_id,omitempty"`
	Temperature      decimal.Decimal `json:"temperature"`
	Humidity         decimal.Decimal `json:"humidity"` // Fraction 0-1
	ProbabilityVapor decimal.Decimal `json:"probability_vapor"`
	ProbabilitySmog  decimal.Decimal `json:"probability_smug"`
	ProbabilitySmoke decimal.Decimal `json:"probability_smoke"`
	ProbabilityFog   decimal.Decimal `json:"probability_fog"`
	Alert            string          `json:"alert"`
	DangerAlert      string          `json:"danger_alert"`
	AlertLevel       AlertLevel      `json:"alert_level"`
	DangerConditions []string        `json:"danger_conditions"`
}

// AlertDecision is the result of evaluating one record against the cloud thresholds
type AlertDecision struct {
	Level      AlertLevel `json:"alert_level"`
	Conditions []string   `json:"danger_conditions"`
	RecordID   string     `json:"record_id"`
	Timestamp  time.Time  `json:"timestamp"`
}

// IsDanger reports whether any condition was breached
func (d AlertDecision) IsDanger() bool {
	return d.Level == AlertLevelDanger && len(d.Conditions) > 0
}

// RequiredTelemetryFields are checked in this order on ingestion
var RequiredTelemetryFields = []string{
	"temperature",
	"humidity",
	"probability_vapor",
	"probability_smug",
	"probability_smoke",
	"probability_fog",
}

// MissingFieldError is returned when a required field is absent from a request body
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

// PayloadError is returned when a request body or one of its fields cannot be decoded
type PayloadError struct {
	Field string // empty when the body itself is malformed
	Err   error
}

func (e *PayloadError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("failed to unmarshal request body: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.Field, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// envelope is the loose form of any {"data": {...}} request body
type envelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

func decodeEnvelope(body []byte, required []string) (map[string]json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &PayloadError{Err: err}
	}
	if env.Data == nil {
		env.Data = map[string]json.RawMessage{}
	}

	for _, field := range required {
		if _, ok := env.Data[field]; !ok {
			return nil, &MissingFieldError{Field: field}
		}
	}
	return env.Data, nil
}

// ParseTelemetry decodes a telemetry envelope into a record without ID,
// timestamp or verdict. Numbers may arrive as JSON strings or JSON numbers.
func ParseTelemetry(body []byte) (SensorRecord, error) {
	data, err := decodeEnvelope(body, RequiredTelemetryFields)
	if err != nil {
		return SensorRecord{}, err
	}

	var rec SensorRecord
	targets := []*decimal.Decimal{
		&rec.Temperature,
		&rec.Humidity,
		&rec.ProbabilityVapor,
		&rec.ProbabilitySmog,
		&rec.ProbabilitySmoke,
		&rec.ProbabilityFog,
	}
	for i, field := range RequiredTelemetryFields {
		if err := json.Unmarshal(data[field], targets[i]); err != nil {
			return SensorRecord{}, &PayloadError{Field: field, Err: err}
		}
	}

	if raw, ok := data["alert"]; ok {
		_ = json.Unmarshal(raw, &rec.Alert)
	}
	if raw, ok := data["danger_alert"]; ok {
		_ = json.Unmarshal(raw, &rec.DangerAlert)
	}
	if raw, ok := data["device_id"]; ok {
		_ = json.Unmarshal(raw, &rec.DeviceID)
	}

	return rec, nil
}
