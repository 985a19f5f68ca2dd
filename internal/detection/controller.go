package detection

import (
	"context"
	"log"
	"time"

	"hazard-monitor/internal/camera"
	"hazard-monitor/internal/models"
	"hazard-monitor/internal/vision"
)

// Detection methods
const (
	MethodVision        = "vision"
	MethodThresholdOnly = "threshold_only"
)

// Uploader delivers telemetry to the cloud. Delivery problems are reported
// in the returned status, never as a panic or error.
type Uploader interface {
	Upload(ctx context.Context, payload models.TelemetryPayload) models.UploadStatus
}

// SensorData echoes the reading that triggered a detection
type SensorData struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// DetectionResults is the batch aggregate plus how it was obtained
type DetectionResults struct {
	vision.BatchResult
	Method    string    `json:"detection_method"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is everything one early-detection request produced
type Result struct {
	SensorData     SensorData              `json:"sensor_data"`
	ThresholdCheck GateResult              `json:"threshold_check"`
	Detection      DetectionResults        `json:"detection_results"`
	Telemetry      models.TelemetryPayload `json:"telemetry"`
	CloudUpload    models.UploadStatus     `json:"cloud_upload"`
	Message        string                  `json:"message"`
	Error          string                  `json:"error,omitempty"`
}

// ControllerConfig holds configuration for the escalation controller
type ControllerConfig struct {
	DeviceID      string
	FrameCount    int
	FrameDelay    time.Duration
	UploadTimeout time.Duration
}

// DefaultControllerConfig returns default controller configuration
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		DeviceID:      "edge-001",
		FrameCount:    24,
		FrameDelay:    100 * time.Millisecond,
		UploadTimeout: 10 * time.Second,
	}
}

// Controller runs the hybrid strategy: every reading is uploaded, but frames
// are only captured and classified when the sensor gate fires.
// It holds no per-request state and is safe for concurrent use.
type Controller struct {
	gate       *SensorGate
	source     camera.FrameSource
	aggregator *vision.Aggregator
	uploader   Uploader
	config     ControllerConfig
}

// NewController creates a controller. A nil source behaves like a camera
// that never delivers frames.
func NewController(
	gate *SensorGate,
	source camera.FrameSource,
	aggregator *vision.Aggregator,
	uploader Uploader,
	config ControllerConfig,
) *Controller {
	return &Controller{
		gate:       gate,
		source:     source,
		aggregator: aggregator,
		uploader:   uploader,
		config:     config,
	}
}

// EarlyDetection evaluates one reading. Humidity is a percentage.
func (c *Controller) EarlyDetection(ctx context.Context, temperature, humidity float64) Result {
	log.Printf("Controller: Early detection started - Temp: %.1f°C, Humidity: %.1f%%", temperature, humidity)

	result := Result{
		SensorData: SensorData{Temperature: temperature, Humidity: humidity},
	}

	gate := c.gate.Evaluate(temperature, humidity)
	result.ThresholdCheck = gate

	batch := vision.BatchResult{}
	method := MethodThresholdOnly

	if gate.ShouldAnalyze() {
		log.Printf("Controller: Thresholds exceeded for %v, capturing %d frames", gate.ConditionsDetected, c.config.FrameCount)

		frames := c.capture(ctx)
		if len(frames) == 0 {
			log.Println("Controller: Failed to capture frames from camera")
			result.Error = "Camera capture failed"
		} else {
			log.Printf("Controller: Analyzing %d frames", len(frames))
			batch = c.aggregator.Analyze(frames)
			method = MethodVision
		}
	} else {
		log.Println("Controller: Thresholds not exceeded, skipping video capture")
	}

	result.Detection = DetectionResults{
		BatchResult: batch,
		Method:      method,
		Timestamp:   time.Now().UTC(),
	}

	alert, danger := composeAlert(batch, gate)
	payload := models.TelemetryPayload{
		DeviceID:         c.config.DeviceID,
		Temperature:      temperature,
		Humidity:         humidity,
		ProbabilityVapor: batch.Vapor.Probability,
		ProbabilitySmog:  batch.Smog.Probability,
		ProbabilitySmoke: batch.Smoke.Probability,
		ProbabilityFog:   batch.Fog.Probability,
		Alert:            alert,
		DangerAlert:      danger,
	}
	result.Telemetry = payload

	result.CloudUpload = c.upload(ctx, payload)
	result.Message = summarize(gate, batch)

	log.Printf("Controller: Early detection complete: %s", result.Message)
	return result
}

func (c *Controller) capture(ctx context.Context) []vision.PixelBuffer {
	if c.source == nil {
		return nil
	}
	return c.source.Capture(ctx, c.config.FrameCount, c.config.FrameDelay)
}

func (c *Controller) upload(ctx context.Context, payload models.TelemetryPayload) models.UploadStatus {
	if c.uploader == nil {
		return models.UploadStatus{Success: false, Error: "no uploader configured"}
	}

	uploadCtx, cancel := context.WithTimeout(ctx, c.config.UploadTimeout)
	defer cancel()

	status := c.uploader.Upload(uploadCtx, payload)
	if status.Success {
		log.Printf("Controller: Cloud upload successful: %d", status.StatusCode)
	} else {
		log.Printf("Controller: Cloud upload failed: %s", status.Error)
	}
	return status
}
