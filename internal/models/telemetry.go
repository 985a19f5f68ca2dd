package models

import (
	"math"
	"strconv"
	"strings"
)

// TelemetryPayload is what the edge sends to the cloud after every
// detection request, whether or not frames were analyzed.
type TelemetryPayload struct {
	DeviceID         string  `json:"-"`
	Temperature      float64 `json:"temperature"` // Celsius
	Humidity         float64 `json:"humidity"`    // Percentage 0-100
	ProbabilityVapor float64 `json:"probability_vapor"`
	ProbabilitySmog  float64 `json:"probability_smog"`
	ProbabilitySmoke float64 `json:"probability_smoke"`
	ProbabilityFog   float64 `json:"probability_fog"`
	Alert            string  `json:"alert"`
	DangerAlert      string  `json:"danger_alert"`
}

// TelemetryData is the wire form of a payload. Every value is a string and
// humidity is a 0-1 fraction. The smog field keeps its historical key.
type TelemetryData struct {
	Temperature      string `json:"temperature"`
	Humidity         string `json:"humidity"`
	ProbabilityVapor string `json:"probability_vapor"`
	ProbabilitySmug  string `json:"probability_smug"`
	ProbabilitySmoke string `json:"probability_smoke"`
	ProbabilityFog   string `json:"probability_fog"`
	Alert            string `json:"alert"`
	DangerAlert      string `json:"danger_alert"`
}

// TelemetryEnvelope wraps TelemetryData under "data"
type TelemetryEnvelope struct {
	Data TelemetryData `json:"data"`
}

// Envelope converts the payload to its wire form
func (p TelemetryPayload) Envelope() TelemetryEnvelope {
	return TelemetryEnvelope{
		Data: TelemetryData{
			Temperature:      FormatFloat(p.Temperature),
			Humidity:         FormatFloat(p.Humidity / 100.0),
			ProbabilityVapor: FormatFloat(p.ProbabilityVapor),
			ProbabilitySmug:  FormatFloat(p.ProbabilitySmog),
			ProbabilitySmoke: FormatFloat(p.ProbabilitySmoke),
			ProbabilityFog:   FormatFloat(p.ProbabilityFog),
			Alert:            p.Alert,
			DangerAlert:      p.DangerAlert,
		},
	}
}

// FormatFloat renders v the way the cloud side has always received numbers:
// shortest round-trip digits, ".0" on integral values, exponent form outside
// [1e-4, 1e16).
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
