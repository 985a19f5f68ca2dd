package mqtt

import (
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"hazard-monitor/internal/models"
)

// TelemetryMessage is a raw telemetry envelope received over MQTT
type TelemetryMessage struct {
	DeviceID   string
	ReceivedAt time.Time
	Body       []byte
}

// Subscriber handles MQTT subscriptions and writes messages to channels
type Subscriber struct {
	client mqtt.Client

	// Output channels (written by subscriber, read by services)
	TempChan      chan *models.TemperatureReading
	HumidityChan  chan *models.HumidityReading
	TelemetryChan chan *TelemetryMessage

	// Topic patterns
	temperatureTopic string
	humidityTopic    string
	telemetryTopic   string

	sendTimeout time.Duration
}

// SubscriberConfig holds configuration for MQTT subscriber.
// An empty topic is not subscribed.
type SubscriberConfig struct {
	TemperatureTopic string // e.g., "sensor/+/temperature"
	HumidityTopic    string // e.g., "sensor/+/humidity"
	TelemetryTopic   string // e.g., "telemetry/+"
}

// NewSubscriber creates a new MQTT subscriber with channels.
// Channels for unused topics may be nil.
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	tempChan chan *models.TemperatureReading,
	humidityChan chan *models.HumidityReading,
	telemetryChan chan *TelemetryMessage,
) *Subscriber {
	return &Subscriber{
		client:           client,
		TempChan:         tempChan,
		HumidityChan:     humidityChan,
		TelemetryChan:    telemetryChan,
		temperatureTopic: config.TemperatureTopic,
		humidityTopic:    config.HumidityTopic,
		telemetryTopic:   config.TelemetryTopic,
		sendTimeout:      1 * time.Second,
	}
}

// SubscribeAll subscribes to all configured topics
func (s *Subscriber) SubscribeAll() error {
	// Subscribe to temperature topic
	if s.temperatureTopic != "" {
		if err := s.subscribeToTopic(s.temperatureTopic, s.handleTemperature); err != nil {
			return fmt.Errorf("failed to subscribe to temperature topic: %w", err)
		}
		log.Printf("Subscribed to temperature topic: %s", s.temperatureTopic)
	}

	// Subscribe to humidity topic
	if s.humidityTopic != "" {
		if err := s.subscribeToTopic(s.humidityTopic, s.handleHumidity); err != nil {
			return fmt.Errorf("failed to subscribe to humidity topic: %w", err)
		}
		log.Printf("Subscribed to humidity topic: %s", s.humidityTopic)
	}

	// Subscribe to telemetry topic (cloud side)
	if s.telemetryTopic != "" {
		if err := s.subscribeToTopic(s.telemetryTopic, s.handleTelemetry); err != nil {
			return fmt.Errorf("failed to subscribe to telemetry topic: %w", err)
		}
		log.Printf("Subscribed to telemetry topic: %s", s.telemetryTopic)
	}

	return nil
}

// subscribeToTopic is a helper function to subscribe to a topic with a handler
func (s *Subscriber) subscribeToTopic(topic string, handler mqtt.MessageHandler) error {
	token := s.client.Subscribe(topic, 1, handler)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// handleTemperature processes temperature sensor messages and writes to channel
func (s *Subscriber) handleTemperature(client mqtt.Client, msg mqtt.Message) {
	value, deviceID, ok := parseReading(msg, "temperature")
	if !ok {
		return
	}

	reading := &models.TemperatureReading{
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Value:     value,
	}

	log.Printf("Received temperature from %s: %.2f°C", deviceID, value)

	select {
	case s.TempChan <- reading:
	case <-time.After(s.sendTimeout):
		log.Printf("Warning: Temperature channel full, dropping message from %s", deviceID)
	}
}

// handleHumidity processes humidity sensor messages and writes to channel
func (s *Subscriber) handleHumidity(client mqtt.Client, msg mqtt.Message) {
	value, deviceID, ok := parseReading(msg, "humidity")
	if !ok {
		return
	}

	reading := &models.HumidityReading{
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Value:     value,
	}

	log.Printf("Received humidity from %s: %.2f%%", deviceID, value)

	select {
	case s.HumidityChan <- reading:
	case <-time.After(s.sendTimeout):
		log.Printf("Warning: Humidity channel full, dropping message from %s", deviceID)
	}
}

// handleTelemetry forwards telemetry envelopes as-is; parsing happens in the ingest service
func (s *Subscriber) handleTelemetry(client mqtt.Client, msg mqtt.Message) {
	deviceID := extractDeviceID(msg.Topic())

	body := make([]byte, len(msg.Payload()))
	copy(body, msg.Payload())

	message := &TelemetryMessage{
		DeviceID:   deviceID,
		ReceivedAt: time.Now(),
		Body:       body,
	}

	log.Printf("Received telemetry from %s (%d bytes)", deviceID, len(body))

	select {
	case s.TelemetryChan <- message:
	case <-time.After(2 * s.sendTimeout):
		log.Printf("Warning: Telemetry channel full, dropping message from %s", deviceID)
	}
}

// parseReading reads a raw float payload and the device ID from the topic
func parseReading(msg mqtt.Message, kind string) (float64, string, bool) {
	var value float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(msg.Payload())), "%f", &value); err != nil {
		log.Printf("Error parsing %s value: %v", kind, err)
		return 0, "", false
	}

	// Extract device ID from topic (sensor/{device_id}/{kind})
	deviceID := extractDeviceID(msg.Topic())
	if deviceID == "" {
		log.Printf("Could not extract device ID from topic: %s", msg.Topic())
		return 0, "", false
	}

	return value, deviceID, true
}

// extractDeviceID extracts device ID from MQTT topic
// Example: "sensor/edge-001/temperature" -> "edge-001"
// Example: "telemetry/edge-001" -> "edge-001"
func extractDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
