package services

import (
	"context"
	"log"
	"sync"

	"hazard-monitor/internal/aggregator"
	"hazard-monitor/internal/detection"
	"hazard-monitor/internal/models"
)

// Detector runs one early-detection cycle for a reading
type Detector interface {
	EarlyDetection(ctx context.Context, temperature, humidity float64) detection.Result
}

// SensorService collects edge readings, pairs them per device and runs the
// escalation controller for every pair the aggregator lets through
type SensorService struct {
	aggregator *aggregator.SensorAggregator
	detector   Detector

	// Input channels from the MQTT subscriber and the serial reader
	TempChan     chan *models.TemperatureReading
	HumidityChan chan *models.HumidityReading
	PairChan     chan models.SensorPair

	detectChan chan models.SensorPair

	mu         sync.RWMutex
	lastResult *detection.Result
}

// SensorServiceConfig holds configuration for sensor service
type SensorServiceConfig struct {
	TempChannelSize     int
	HumidityChannelSize int
	PairChannelSize     int
	DetectQueueSize     int
}

// DefaultSensorServiceConfig returns default configuration
func DefaultSensorServiceConfig() SensorServiceConfig {
	return SensorServiceConfig{
		TempChannelSize:     100,
		HumidityChannelSize: 100,
		PairChannelSize:     20,
		DetectQueueSize:     4, // detection runs take seconds
	}
}

// NewSensorService creates a new sensor service and installs itself as the
// aggregator's pair callback
func NewSensorService(
	agg *aggregator.SensorAggregator,
	detector Detector,
	config SensorServiceConfig,
) *SensorService {
	s := &SensorService{
		aggregator:   agg,
		detector:     detector,
		TempChan:     make(chan *models.TemperatureReading, config.TempChannelSize),
		HumidityChan: make(chan *models.HumidityReading, config.HumidityChannelSize),
		PairChan:     make(chan models.SensorPair, config.PairChannelSize),
		detectChan:   make(chan models.SensorPair, config.DetectQueueSize),
	}
	agg.SetPairCallback(s.enqueue)
	return s
}

// Start begins processing sensor data from channels.
// Runs until context is cancelled.
func (s *SensorService) Start(ctx context.Context) {
	log.Println("SensorService: Starting...")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.intakeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.detectionLoop(ctx)
	}()

	log.Println("SensorService: All processing loops started")

	<-ctx.Done()
	log.Println("SensorService: Shutting down...")
	wg.Wait()
	log.Println("SensorService: Shutdown complete")
}

// intakeLoop feeds every reading to the aggregator
func (s *SensorService) intakeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reading := <-s.TempChan:
			s.aggregator.UpdateTemperature(reading, "mqtt")
		case reading := <-s.HumidityChan:
			s.aggregator.UpdateHumidity(reading, "mqtt")
		case pair := <-s.PairChan:
			s.aggregator.UpdatePair(pair)
		}
	}
}

// detectionLoop runs the controller one pair at a time
func (s *SensorService) detectionLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pair := <-s.detectChan:
			result := s.detector.EarlyDetection(ctx, pair.Temperature, pair.Humidity)

			s.mu.Lock()
			s.lastResult = &result
			s.mu.Unlock()

			log.Printf("SensorService: Detection for %s (%s): %s", pair.DeviceID, pair.Source, result.Message)
		}
	}
}

func (s *SensorService) enqueue(pair models.SensorPair) {
	select {
	case s.detectChan <- pair:
	default:
		log.Printf("SensorService: Warning - detection queue full, dropping pair for %s", pair.DeviceID)
	}
}

// LastResult returns the most recent detection result, if any
func (s *SensorService) LastResult() (detection.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastResult == nil {
		return detection.Result{}, false
	}
	return *s.lastResult, true
}
