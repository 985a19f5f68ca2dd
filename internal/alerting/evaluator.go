package alerting

import (
	"fmt"

	"github.com/shopspring/decimal"
	"hazard-monitor/internal/models"
	"hazard-monitor/pkg/config"
)

var hundred = decimal.NewFromInt(100)

// Evaluate checks a record against the cloud thresholds. Checks run in a
// fixed order and every breach adds one condition; any breach makes the
// level DANGER.
func Evaluate(rec models.SensorRecord, th config.CloudThresholds) models.AlertDecision {
	decision := models.AlertDecision{
		Level:      models.AlertLevelNormal,
		Conditions: []string{},
		RecordID:   rec.ID,
		Timestamp:  rec.Timestamp,
	}

	breach := func(condition string) {
		decision.Conditions = append(decision.Conditions, condition)
		decision.Level = models.AlertLevelDanger
	}

	if rec.Temperature.GreaterThan(decimal.NewFromFloat(th.Temperature)) {
		breach(fmt.Sprintf("High temperature: %s°C", rec.Temperature.StringFixed(1)))
	}
	if rec.Humidity.LessThan(decimal.NewFromFloat(th.Humidity)) {
		breach(fmt.Sprintf("Low humidity: %s%%", rec.Humidity.Mul(hundred).StringFixed(1)))
	}
	if rec.ProbabilitySmoke.GreaterThan(decimal.NewFromFloat(th.Smoke)) {
		breach(fmt.Sprintf("High smoke probability: %s%%", rec.ProbabilitySmoke.Mul(hundred).StringFixed(1)))
	}
	// Fog is reported as a driving hazard.
	if rec.ProbabilityFog.GreaterThan(decimal.NewFromFloat(th.Fog)) {
		breach(fmt.Sprintf("HIGH FOG DETECTED: %s%% - DRIVING HAZARD!", rec.ProbabilityFog.Mul(hundred).StringFixed(1)))
	}

	return decision
}

// ThresholdAlert builds the DANGER_THRESHOLD_EXCEEDED alert for a breaching record
func ThresholdAlert(rec models.SensorRecord, decision models.AlertDecision) models.Alert {
	return models.Alert{
		Type:      models.AlertTypeDangerThreshold,
		Timestamp: rec.Timestamp,
		Details: models.AlertDetails{
			Conditions: decision.Conditions,
			SensorData: &models.AlertSensorData{
				Temperature:      rec.Temperature.InexactFloat64(),
				Humidity:         rec.Humidity.InexactFloat64(),
				ProbabilitySmoke: rec.ProbabilitySmoke.InexactFloat64(),
				ProbabilityFog:   rec.ProbabilityFog.InexactFloat64(),
				Alert:            rec.Alert,
				DangerAlert:      rec.DangerAlert,
			},
			RecordID: rec.ID,
		},
	}
}

// MalfunctionAlert builds the SENSOR_MALFUNCTION alert for a status report.
// ok is false when nothing has failed.
func MalfunctionAlert(st models.SensorStatus) (models.Alert, bool) {
	sensors := st.FailedSensors()
	cameras := st.FailedCameras()
	if len(sensors) == 0 && len(cameras) == 0 {
		return models.Alert{}, false
	}

	return models.Alert{
		Type:      models.AlertTypeSensorMalfunction,
		Timestamp: st.Timestamp,
		Details: models.AlertDetails{
			FailedSensors: sensors,
			FailedCameras: cameras,
			RecordID:      st.ID,
		},
	}, true
}
