package aggregator

import (
	"log"
	"math"
	"sync"
	"time"

	"hazard-monitor/internal/models"
)

// ChangeThresholds defines when a new reading is worth a detection run
type ChangeThresholds struct {
	TemperatureDelta float64       // Celsius
	HumidityDelta    float64       // Percentage points
	RateLimit        time.Duration // Minimum gap between triggers per device
}

// DefaultChangeThresholds returns default trigger thresholds
func DefaultChangeThresholds() ChangeThresholds {
	return ChangeThresholds{
		TemperatureDelta: 0.5,
		HumidityDelta:    2.0,
		RateLimit:        5 * time.Second,
	}
}

// DeviceState holds the latest sensor readings for a device
type DeviceState struct {
	DeviceID        string
	LastTemperature *models.TemperatureReading
	LastHumidity    *models.HumidityReading
	LastTrigger     time.Time

	// values used by the previous trigger
	triggeredTemp     float64
	triggeredHumidity float64
	triggered         bool

	mu sync.Mutex
}

// SensorAggregator pairs temperature and humidity readings per device and
// decides when a pair should go to the escalation controller.
type SensorAggregator struct {
	devices    map[string]*DeviceState
	thresholds ChangeThresholds
	mu         sync.RWMutex

	now func() time.Time

	onPair func(models.SensorPair)
}

// NewSensorAggregator creates a new sensor aggregator
func NewSensorAggregator(thresholds ChangeThresholds) *SensorAggregator {
	return &SensorAggregator{
		devices:    make(map[string]*DeviceState),
		thresholds: thresholds,
		now:        time.Now,
	}
}

// SetPairCallback sets the function called with every triggering pair.
// It runs on the goroutine that delivered the reading.
func (sa *SensorAggregator) SetPairCallback(callback func(models.SensorPair)) {
	sa.onPair = callback
}

func (sa *SensorAggregator) getOrCreateDevice(deviceID string) *DeviceState {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if device, exists := sa.devices[deviceID]; exists {
		return device
	}

	device := &DeviceState{DeviceID: deviceID}
	sa.devices[deviceID] = device
	return device
}

// UpdateTemperature records a temperature reading. It reports whether a
// detection run was triggered.
func (sa *SensorAggregator) UpdateTemperature(reading *models.TemperatureReading, source string) bool {
	device := sa.getOrCreateDevice(reading.DeviceID)

	device.mu.Lock()
	device.LastTemperature = reading
	pair, ok := sa.evaluate(device, source)
	device.mu.Unlock()

	return sa.fire(pair, ok)
}

// UpdateHumidity records a humidity reading. It reports whether a detection
// run was triggered.
func (sa *SensorAggregator) UpdateHumidity(reading *models.HumidityReading, source string) bool {
	device := sa.getOrCreateDevice(reading.DeviceID)

	device.mu.Lock()
	device.LastHumidity = reading
	pair, ok := sa.evaluate(device, source)
	device.mu.Unlock()

	return sa.fire(pair, ok)
}

// UpdatePair records both readings at once, as the serial sensor delivers them
func (sa *SensorAggregator) UpdatePair(pair models.SensorPair) bool {
	device := sa.getOrCreateDevice(pair.DeviceID)

	device.mu.Lock()
	device.LastTemperature = &models.TemperatureReading{Timestamp: pair.Timestamp, DeviceID: pair.DeviceID, Value: pair.Temperature}
	device.LastHumidity = &models.HumidityReading{Timestamp: pair.Timestamp, DeviceID: pair.DeviceID, Value: pair.Humidity}
	out, ok := sa.evaluate(device, pair.Source)
	device.mu.Unlock()

	return sa.fire(out, ok)
}

// evaluate must be called with device.mu held
func (sa *SensorAggregator) evaluate(device *DeviceState, source string) (models.SensorPair, bool) {
	if device.LastTemperature == nil || device.LastHumidity == nil {
		return models.SensorPair{}, false
	}

	temp := device.LastTemperature.Value
	humidity := device.LastHumidity.Value

	if device.triggered {
		tempDelta := math.Abs(temp - device.triggeredTemp)
		humidityDelta := math.Abs(humidity - device.triggeredHumidity)
		if tempDelta < sa.thresholds.TemperatureDelta && humidityDelta < sa.thresholds.HumidityDelta {
			return models.SensorPair{}, false
		}

		since := sa.now().Sub(device.LastTrigger)
		if since < sa.thresholds.RateLimit {
			log.Printf("Aggregator: Rate limiting detection for %s (last run was %.1fs ago)",
				device.DeviceID, since.Seconds())
			return models.SensorPair{}, false
		}
		log.Printf("Aggregator: Significant change for %s: temp delta %.2f°C, humidity delta %.2f%%",
			device.DeviceID, tempDelta, humidityDelta)
	}

	now := sa.now()
	device.LastTrigger = now
	device.triggered = true
	device.triggeredTemp = temp
	device.triggeredHumidity = humidity

	return models.SensorPair{
		Timestamp:   now,
		DeviceID:    device.DeviceID,
		Temperature: temp,
		Humidity:    humidity,
		Source:      source,
	}, true
}

func (sa *SensorAggregator) fire(pair models.SensorPair, ok bool) bool {
	if !ok {
		return false
	}
	if sa.onPair == nil {
		log.Printf("Aggregator: No pair callback set, dropping pair for %s", pair.DeviceID)
		return false
	}

	log.Printf("Aggregator: Triggering detection for %s (temp=%.2f°C, humidity=%.2f%%, source=%s)",
		pair.DeviceID, pair.Temperature, pair.Humidity, pair.Source)
	sa.onPair(pair)
	return true
}

// Latest returns the most recent complete pair for a device
func (sa *SensorAggregator) Latest(deviceID string) (models.SensorPair, bool) {
	sa.mu.RLock()
	device, ok := sa.devices[deviceID]
	sa.mu.RUnlock()
	if !ok {
		return models.SensorPair{}, false
	}

	device.mu.Lock()
	defer device.mu.Unlock()
	if device.LastTemperature == nil || device.LastHumidity == nil {
		return models.SensorPair{}, false
	}
	ts := device.LastTemperature.Timestamp
	if device.LastHumidity.Timestamp.After(ts) {
		ts = device.LastHumidity.Timestamp
	}
	return models.SensorPair{
		Timestamp:   ts,
		DeviceID:    deviceID,
		Temperature: device.LastTemperature.Value,
		Humidity:    device.LastHumidity.Value,
	}, true
}

// GetAllDevices returns all device IDs
func (sa *SensorAggregator) GetAllDevices() []string {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	devices := make([]string, 0, len(sa.devices))
	for deviceID := range sa.devices {
		devices = append(devices, deviceID)
	}
	return devices
}
