package detection

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hazard-monitor/internal/models"
	"hazard-monitor/internal/vision"
	"hazard-monitor/pkg/config"
)

func defaultGate() *SensorGate {
	return NewSensorGate(config.GateThresholds{
		FogHumidityMin:   90,
		FogTempMin:       5,
		FogTempMax:       20,
		SmokeTempMin:     45,
		SmokeHumidityMax: 40,
	})
}

type countingSource struct {
	mu     sync.Mutex
	frames []vision.PixelBuffer
	calls  int
}

func (s *countingSource) Capture(ctx context.Context, count int, delay time.Duration) []vision.PixelBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if count > len(s.frames) {
		count = len(s.frames)
	}
	return s.frames[:count]
}

type fakeUploader struct {
	mu       sync.Mutex
	payloads []models.TelemetryPayload
	status   models.UploadStatus
	deadline bool
}

func (u *fakeUploader) Upload(ctx context.Context, payload models.TelemetryPayload) models.UploadStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.payloads = append(u.payloads, payload)
	_, u.deadline = ctx.Deadline()
	return u.status
}

func grayFrames(n int) []vision.PixelBuffer {
	frames := make([]vision.PixelBuffer, n)
	for i := range frames {
		frames[i] = vision.Uniform(30, 30, 128, 128, 128)
	}
	return frames
}

func newTestController(source *countingSource, uploader *fakeUploader) *Controller {
	cfg := DefaultControllerConfig()
	cfg.FrameCount = 4
	cfg.FrameDelay = 0
	return NewController(
		defaultGate(),
		source,
		vision.NewAggregator(vision.DefaultClassifierConfig(), vision.DefaultDetectionThreshold),
		uploader,
		cfg,
	)
}

func TestSensorGate(t *testing.T) {
	gate := defaultGate()

	tests := []struct {
		name       string
		temp, hum  float64
		fog, smoke bool
		decision   Decision
		conditions []string
	}{
		{"fog band", 15.5, 92, true, false, DecisionAnalyze, []string{ConditionFog}},
		{"fog lower edges", 5, 90, true, false, DecisionAnalyze, []string{ConditionFog}},
		{"fog upper temp edge", 20, 100, true, false, DecisionAnalyze, []string{ConditionFog}},
		{"too warm for fog", 20.1, 95, false, false, DecisionSkip, []string{}},
		{"smoke band", 50, 25, false, true, DecisionAnalyze, []string{ConditionSmoke}},
		{"smoke edges", 45, 40, false, true, DecisionAnalyze, []string{ConditionSmoke}},
		{"too humid for smoke", 60, 40.5, false, false, DecisionSkip, []string{}},
		{"normal", 25, 50, false, false, DecisionSkip, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gate.Evaluate(tt.temp, tt.hum)
			assert.Equal(t, tt.fog, r.FogConditionsMet)
			assert.Equal(t, tt.smoke, r.SmokeConditionsMet)
			assert.Equal(t, tt.decision, r.Decision)
			assert.Equal(t, tt.decision == DecisionAnalyze, r.ShouldAnalyze())
			assert.Equal(t, tt.conditions, r.ConditionsDetected)
		})
	}
}

func TestGateThresholdSummary(t *testing.T) {
	r := defaultGate().Evaluate(0, 0)
	assert.Equal(t, ">= 90.0%", r.Thresholds.Fog.Humidity)
	assert.Equal(t, "5.0°C - 20.0°C", r.Thresholds.Fog.Temperature)
	assert.Equal(t, ">= 45.0°C", r.Thresholds.Smoke.Temperature)
	assert.Equal(t, "<= 40.0%", r.Thresholds.Smoke.Humidity)

	body, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"decision":"skip"`)
}

func TestEarlyDetectionFogConditions(t *testing.T) {
	source := &countingSource{frames: grayFrames(6)}
	uploader := &fakeUploader{status: models.UploadStatus{Success: true, StatusCode: 200, Endpoint: "test"}}
	ctrl := newTestController(source, uploader)

	result := ctrl.EarlyDetection(context.Background(), 15.5, 92.0)

	assert.True(t, result.ThresholdCheck.FogConditionsMet)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, MethodVision, result.Detection.Method)
	assert.Equal(t, 4, result.Detection.FramesAnalyzed)
	assert.True(t, result.Detection.Fog.Detected)
	assert.False(t, result.Detection.Smoke.Detected)
	assert.Empty(t, result.Error)

	require.Len(t, uploader.payloads, 1)
	p := uploader.payloads[0]
	assert.Equal(t, 15.5, p.Temperature)
	assert.Equal(t, 92.0, p.Humidity)
	assert.Equal(t, 0.925, p.ProbabilityFog)
	assert.Equal(t, "FOG CONDITIONS - Monitoring | FOG DETECTED - Reduced visibility", p.Alert)
	assert.Equal(t, "High fog probability: 92.5%", p.DangerAlert)
	assert.True(t, uploader.deadline, "upload must run under a timeout")

	assert.True(t, result.CloudUpload.Success)
	assert.Equal(t, "FOG DETECTED (92.5%) - Video analyzed - Data uploaded to cloud", result.Message)
}

func TestEarlyDetectionSkipsCaptureButUploads(t *testing.T) {
	source := &countingSource{frames: grayFrames(6)}
	uploader := &fakeUploader{status: models.UploadStatus{Success: true, StatusCode: 200}}
	ctrl := newTestController(source, uploader)

	result := ctrl.EarlyDetection(context.Background(), 25.0, 50.0)

	assert.Equal(t, DecisionSkip, result.ThresholdCheck.Decision)
	assert.Equal(t, 0, source.calls)
	assert.Equal(t, vision.BatchResult{}, result.Detection.BatchResult)
	assert.Equal(t, MethodThresholdOnly, result.Detection.Method)

	require.Len(t, uploader.payloads, 1)
	p := uploader.payloads[0]
	assert.Equal(t, "Normal", p.Alert)
	assert.Empty(t, p.DangerAlert)
	assert.Equal(t, 0.0, p.ProbabilityFog)
	assert.Equal(t, 0.0, p.ProbabilitySmoke)

	env := p.Envelope()
	assert.Equal(t, "25.0", env.Data.Temperature)
	assert.Equal(t, "0.5", env.Data.Humidity)
	assert.Equal(t, "0.0", env.Data.ProbabilityVapor)

	assert.Equal(t, "Normal conditions - Basic data uploaded to cloud (no video analysis)", result.Message)
}

func TestEarlyDetectionCaptureFailure(t *testing.T) {
	uploader := &fakeUploader{status: models.UploadStatus{Success: true}}
	ctrl := newTestController(&countingSource{}, uploader)

	result := ctrl.EarlyDetection(context.Background(), 15, 95)

	assert.Equal(t, "Camera capture failed", result.Error)
	assert.Equal(t, MethodThresholdOnly, result.Detection.Method)
	assert.Equal(t, vision.BatchResult{}, result.Detection.BatchResult)
	require.Len(t, uploader.payloads, 1)
	assert.Equal(t, "FOG CONDITIONS - Monitoring | Normal", uploader.payloads[0].Alert)
	assert.Equal(t, "Threshold exceeded - Video analyzed - Data uploaded to cloud", result.Message)
}

func TestEarlyDetectionNilSource(t *testing.T) {
	uploader := &fakeUploader{status: models.UploadStatus{Success: true}}
	cfg := DefaultControllerConfig()
	ctrl := NewController(defaultGate(), nil,
		vision.NewAggregator(vision.DefaultClassifierConfig(), vision.DefaultDetectionThreshold), uploader, cfg)

	result := ctrl.EarlyDetection(context.Background(), 50, 20)
	assert.Equal(t, "Camera capture failed", result.Error)
	assert.Len(t, uploader.payloads, 1)
}

func TestEarlyDetectionUploadFailureKeepsResult(t *testing.T) {
	source := &countingSource{frames: grayFrames(4)}
	uploader := &fakeUploader{status: models.UploadStatus{Success: false, Error: "Request timeout"}}
	ctrl := newTestController(source, uploader)

	result := ctrl.EarlyDetection(context.Background(), 10, 99)

	assert.False(t, result.CloudUpload.Success)
	assert.Equal(t, "Request timeout", result.CloudUpload.Error)
	assert.True(t, result.Detection.Fog.Detected)
	assert.Empty(t, result.Error)
}

func TestEarlyDetectionConcurrentCalls(t *testing.T) {
	source := &countingSource{frames: grayFrames(4)}
	uploader := &fakeUploader{status: models.UploadStatus{Success: true}}
	ctrl := newTestController(source, uploader)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ctrl.EarlyDetection(context.Background(), 15.5, 92)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0].Detection.BatchResult, r.Detection.BatchResult)
	}
	assert.Len(t, uploader.payloads, 8)
}

func TestComposeAlert(t *testing.T) {
	batch := vision.BatchResult{
		Fog:   vision.ClassResult{Probability: 0.5, Detected: true},
		Smoke: vision.ClassResult{Probability: 0.6, Detected: true},
	}
	gate := GateResult{Decision: DecisionAnalyze, SmokeConditionsMet: true}

	alert, danger := composeAlert(batch, gate)
	assert.Equal(t, "SMOKE CONDITIONS - Monitoring | SMOKE DETECTED - Possible fire hazard | FOG DETECTED - Reduced visibility", alert)
	assert.Equal(t, "High smoke probability: 60.0% | High fog probability: 50.0%", danger)

	// Fog takes precedence in the summary.
	assert.Equal(t, "FOG DETECTED (50.0%) - Video analyzed - Data uploaded to cloud", summarize(gate, batch))

	batch.Fog.Detected = false
	alert, danger = composeAlert(batch, GateResult{})
	assert.Equal(t, "SMOKE DETECTED - Possible fire hazard | Normal", alert)
	assert.Equal(t, "High smoke probability: 60.0%", danger)
	assert.Equal(t, "SMOKE DETECTED (60.0%) - Video analyzed - Data uploaded to cloud", summarize(gate, batch))

	alert, danger = composeAlert(vision.BatchResult{}, GateResult{})
	assert.Equal(t, "Normal", alert)
	assert.Empty(t, danger)
}
