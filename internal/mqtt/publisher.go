package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"hazard-monitor/internal/models"
)

// Publisher publishes JSON messages on the shared connection
type Publisher struct {
	client mqtt.Client
	qos    byte
}

// NewPublisher creates a new MQTT publisher
func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client, qos: 1}
}

// PublishJSON marshals v and publishes it, waiting for the broker ack
// or until ctx is done.
func (p *Publisher) PublishJSON(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	token := p.client.Publish(topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("failed to publish to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// TelemetryPublisher sends telemetry envelopes to telemetry/{device_id}.
// It is the MQTT alternative to the HTTP uplink.
type TelemetryPublisher struct {
	publisher    *Publisher
	topicPattern string // e.g., "telemetry/{device_id}"
}

// NewTelemetryPublisher creates a telemetry publisher
func NewTelemetryPublisher(publisher *Publisher, topicPattern string) *TelemetryPublisher {
	return &TelemetryPublisher{publisher: publisher, topicPattern: topicPattern}
}

// Upload publishes the payload's wire envelope
func (t *TelemetryPublisher) Upload(ctx context.Context, payload models.TelemetryPayload) models.UploadStatus {
	topic := formatTopic(t.topicPattern, "{device_id}", payload.DeviceID)
	status := models.UploadStatus{Endpoint: "mqtt://" + topic}

	if err := t.publisher.PublishJSON(ctx, topic, payload.Envelope()); err != nil {
		if ctx.Err() != nil {
			status.Error = "Request timeout"
		} else {
			status.Error = err.Error()
		}
		return status
	}

	log.Printf("Published telemetry for device %s to topic: %s", payload.DeviceID, topic)
	status.Success = true
	return status
}

// AlertNotifier publishes dispatched alerts to alerts/{alert_type}
type AlertNotifier struct {
	publisher    *Publisher
	topicPattern string // e.g., "alerts/{alert_type}"
}

// NewAlertNotifier creates an alert notifier
func NewAlertNotifier(publisher *Publisher, topicPattern string) *AlertNotifier {
	return &AlertNotifier{publisher: publisher, topicPattern: topicPattern}
}

// Notify publishes the formatted alert
func (n *AlertNotifier) Notify(ctx context.Context, record models.AlertRecord) error {
	topic := formatTopic(n.topicPattern, "{alert_type}", string(record.AlertType))
	if err := n.publisher.PublishJSON(ctx, topic, record); err != nil {
		return err
	}

	log.Printf("Published alert %s to topic: %s", record.AlertID, topic)
	return nil
}

// formatTopic replaces a placeholder with its value
func formatTopic(topicPattern, placeholder, value string) string {
	return strings.ReplaceAll(topicPattern, placeholder, value)
}
