package detection

import (
	"fmt"
	"strings"

	"hazard-monitor/internal/vision"
)

const alertSeparator = " | "

// composeAlert builds the free-text alert and danger strings sent with the
// telemetry. Later checks prepend, so gate conditions lead the alert.
func composeAlert(batch vision.BatchResult, gate GateResult) (alert, danger string) {
	alertParts := []string{"Normal"}
	var dangerParts []string

	if batch.Fog.Detected {
		alertParts = []string{"FOG DETECTED - Reduced visibility"}
		dangerParts = []string{fmt.Sprintf("High fog probability: %s%%", percent(batch.Fog.Probability))}
	}
	if batch.Smoke.Detected {
		alertParts = prepend(alertParts, "SMOKE DETECTED - Possible fire hazard")
		dangerParts = prepend(dangerParts, fmt.Sprintf("High smoke probability: %s%%", percent(batch.Smoke.Probability)))
	}
	if gate.FogConditionsMet {
		alertParts = prepend(alertParts, "FOG CONDITIONS - Monitoring")
	}
	if gate.SmokeConditionsMet {
		alertParts = prepend(alertParts, "SMOKE CONDITIONS - Monitoring")
	}

	return strings.Join(alertParts, alertSeparator), strings.Join(dangerParts, alertSeparator)
}

// summarize builds the human-readable result message
func summarize(gate GateResult, batch vision.BatchResult) string {
	if !gate.ShouldAnalyze() {
		return "Normal conditions - Basic data uploaded to cloud (no video analysis)"
	}

	switch {
	case batch.Fog.Detected:
		return fmt.Sprintf("FOG DETECTED (%s%%) - Video analyzed - Data uploaded to cloud", percent(batch.Fog.Probability))
	case batch.Smoke.Detected:
		return fmt.Sprintf("SMOKE DETECTED (%s%%) - Video analyzed - Data uploaded to cloud", percent(batch.Smoke.Probability))
	default:
		return "Threshold exceeded - Video analyzed - Data uploaded to cloud"
	}
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f", p*100)
}

func prepend(parts []string, s string) []string {
	return append([]string{s}, parts...)
}
