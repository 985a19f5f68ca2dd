package detection

import (
	"fmt"

	"hazard-monitor/internal/models"
	"hazard-monitor/pkg/config"
)

// Decision is the sensor gate's verdict on whether frames are worth analyzing
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionAnalyze
)

func (d Decision) String() string {
	if d == DecisionAnalyze {
		return "analyze"
	}
	return "skip"
}

// MarshalText lets the decision appear by name in JSON results
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Decision) UnmarshalText(text []byte) error {
	switch string(text) {
	case "analyze":
		*d = DecisionAnalyze
	case "skip":
		*d = DecisionSkip
	default:
		return fmt.Errorf("unknown decision %q", text)
	}
	return nil
}

// Conditions reported by the gate
const (
	ConditionFog   = "FOG"
	ConditionSmoke = "SMOKE"
)

// GateResult is the outcome of one sensor gate evaluation
type GateResult struct {
	Decision           Decision         `json:"decision"`
	FogConditionsMet   bool             `json:"fog_conditions_met"`
	SmokeConditionsMet bool             `json:"smoke_conditions_met"`
	ConditionsDetected []string         `json:"conditions_detected"`
	Thresholds         ThresholdSummary `json:"thresholds"`
}

// ShouldAnalyze reports whether frames should be captured
func (r GateResult) ShouldAnalyze() bool {
	return r.Decision == DecisionAnalyze
}

// ThresholdSummary describes the active gate bounds in readable form
type ThresholdSummary struct {
	Fog   BandSummary `json:"fog"`
	Smoke BandSummary `json:"smoke"`
}

type BandSummary struct {
	Humidity    string `json:"humidity"`
	Temperature string `json:"temperature"`
}

// SensorGate is the cheap pre-check in front of frame analysis
type SensorGate struct {
	thresholds config.GateThresholds
	summary    ThresholdSummary
}

// NewSensorGate creates a gate with the given bounds
func NewSensorGate(thresholds config.GateThresholds) *SensorGate {
	return &SensorGate{
		thresholds: thresholds,
		summary: ThresholdSummary{
			Fog: BandSummary{
				Humidity: fmt.Sprintf(">= %s%%", models.FormatFloat(thresholds.FogHumidityMin)),
				Temperature: fmt.Sprintf("%s°C - %s°C",
					models.FormatFloat(thresholds.FogTempMin), models.FormatFloat(thresholds.FogTempMax)),
			},
			Smoke: BandSummary{
				Humidity:    fmt.Sprintf("<= %s%%", models.FormatFloat(thresholds.SmokeHumidityMax)),
				Temperature: fmt.Sprintf(">= %s°C", models.FormatFloat(thresholds.SmokeTempMin)),
			},
		},
	}
}

// Evaluate checks a reading against the fog-favorable and smoke-favorable bands.
// Humidity is a percentage.
func (g *SensorGate) Evaluate(temperature, humidity float64) GateResult {
	t := g.thresholds

	fog := humidity >= t.FogHumidityMin && temperature >= t.FogTempMin && temperature <= t.FogTempMax
	smoke := temperature >= t.SmokeTempMin && humidity <= t.SmokeHumidityMax

	result := GateResult{
		Decision:           DecisionSkip,
		FogConditionsMet:   fog,
		SmokeConditionsMet: smoke,
		ConditionsDetected: []string{},
		Thresholds:         g.summary,
	}
	if fog {
		result.ConditionsDetected = append(result.ConditionsDetected, ConditionFog)
	}
	if smoke {
		result.ConditionsDetected = append(result.ConditionsDetected, ConditionSmoke)
	}
	if fog || smoke {
		result.Decision = DecisionAnalyze
	}

	return result
}
