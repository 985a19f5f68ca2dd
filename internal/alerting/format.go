package alerting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hazard-monitor/internal/models"
)

const (
	rule   = "============================================================"
	footer = "Automated Urban Monitoring System"
)

// FormatMessage renders the subject and body of the notification for an alert
func FormatMessage(alert models.Alert, alertID string) (subject, body string) {
	ts := alert.Timestamp.UTC().Format(time.RFC3339)

	switch alert.Type {
	case models.AlertTypeDangerThreshold:
		return "CRITICAL ALERT - Danger thresholds exceeded", formatDanger(alert, alertID, ts)
	case models.AlertTypeSensorMalfunction:
		return "ALERT - Sensor malfunction", formatMalfunction(alert, alertID, ts)
	default:
		return "Detection system notification", formatGeneric(alert, alertID, ts)
	}
}

func formatDanger(alert models.Alert, alertID, ts string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n  FOG / VAPOR / SMOKE DETECTION SYSTEM - ALERT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "CRITICAL ALERT DETECTED\nDate and time: %s\nAlert ID: %s\n\n", ts, alertID)

	b.WriteString("DANGEROUS CONDITIONS DETECTED:\n")
	writeBullets(&b, alert.Details.Conditions, "")

	b.WriteString("\nSENSOR DATA:\n")
	if sd := alert.Details.SensorData; sd != nil {
		fmt.Fprintf(&b, "  - Temperature: %s°C\n", models.FormatFloat(sd.Temperature))
		fmt.Fprintf(&b, "  - Humidity: %s%%\n", percentOrNA(sd.Humidity))
		fmt.Fprintf(&b, "  - Smoke probability: %s%%\n", percentOrNA(sd.ProbabilitySmoke))
		fmt.Fprintf(&b, "  - Fog probability: %s%% (ROAD HAZARD)\n", percentOrNA(sd.ProbabilityFog))

		edgeAlert := sd.Alert
		if edgeAlert == "" {
			edgeAlert = "No additional alerts"
		}
		fmt.Fprintf(&b, "\nSYSTEM ALERTS:\n  %s\n", edgeAlert)
	} else {
		b.WriteString("  N/A\n")
	}

	b.WriteString("\nACTION REQUIRED:\n")
	b.WriteString("  Check the monitored area immediately and take the appropriate safety measures.\n\n")
	fmt.Fprintf(&b, "%s\n%s\n", rule, footer)
	return b.String()
}

func formatMalfunction(alert models.Alert, alertID, ts string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n  DETECTION SYSTEM - SENSOR FAILURE\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "MAINTENANCE ALERT\nDate and time: %s\nAlert ID: %s\n\n", ts, alertID)

	b.WriteString("SENSORS WITH PROBLEMS:\n")
	if len(alert.Details.FailedSensors) == 0 {
		b.WriteString("  All sensors operational\n")
	} else {
		writeBullets(&b, alert.Details.FailedSensors, "")
	}

	b.WriteString("\nCAMERAS WITH PROBLEMS:\n")
	if len(alert.Details.FailedCameras) == 0 {
		b.WriteString("  All cameras operational\n")
	} else {
		writeBullets(&b, alert.Details.FailedCameras, "Camera: ")
	}

	b.WriteString("\nACTION REQUIRED:\n")
	b.WriteString("  A technical review of the reported equipment is needed to restore full functionality.\n\n")
	fmt.Fprintf(&b, "%s\n%s\n", rule, footer)
	return b.String()
}

func formatGeneric(alert models.Alert, alertID, ts string) string {
	details, err := json.MarshalIndent(alert.Details, "", "  ")
	if err != nil {
		details = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "System Alert\n============\nType: %s\nDate and time: %s\nID: %s\n\n", alert.Type, ts, alertID)
	fmt.Fprintf(&b, "Details:\n%s\n\n%s\n%s\n", details, rule, footer)
	return b.String()
}

func writeBullets(b *strings.Builder, items []string, prefix string) {
	for _, item := range items {
		fmt.Fprintf(b, "  - %s%s\n", prefix, item)
	}
}

// percentOrNA renders a 0-1 fraction as a percentage; zero reads as N/A
func percentOrNA(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return models.FormatFloat(v * 100)
}
