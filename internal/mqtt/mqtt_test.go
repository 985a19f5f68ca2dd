package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hazard-monitor/internal/models"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error, completed bool) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	if completed {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	payload []byte
}

// fakeClient implements the parts of mqtt.Client the package uses.
type fakeClient struct {
	mqtt.Client

	mu         sync.Mutex
	published  []published
	subscribed map[string]mqtt.MessageHandler
	publishErr error
	hang       bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, payload: payload.([]byte)})
	return newToken(c.publishErr, !c.hang)
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribed == nil {
		c.subscribed = map[string]mqtt.MessageHandler{}
	}
	c.subscribed[topic] = callback
	return newToken(nil, true)
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func TestExtractDeviceID(t *testing.T) {
	assert.Equal(t, "edge-001", extractDeviceID("sensor/edge-001/temperature"))
	assert.Equal(t, "edge-002", extractDeviceID("telemetry/edge-002"))
	assert.Equal(t, "", extractDeviceID("telemetry"))
}

func TestSubscriberRoutesReadings(t *testing.T) {
	client := &fakeClient{}
	temps := make(chan *models.TemperatureReading, 1)
	hums := make(chan *models.HumidityReading, 1)
	tele := make(chan *TelemetryMessage, 1)

	sub := NewSubscriber(client, SubscriberConfig{
		TemperatureTopic: "sensor/+/temperature",
		HumidityTopic:    "sensor/+/humidity",
		TelemetryTopic:   "telemetry/+",
	}, temps, hums, tele)
	require.NoError(t, sub.SubscribeAll())
	require.Len(t, client.subscribed, 3)

	client.subscribed["sensor/+/temperature"](client, fakeMessage{topic: "sensor/edge-001/temperature", payload: []byte("15.5\n")})
	client.subscribed["sensor/+/humidity"](client, fakeMessage{topic: "sensor/edge-001/humidity", payload: []byte("92")})
	client.subscribed["telemetry/+"](client, fakeMessage{topic: "telemetry/edge-001", payload: []byte(`{"data":{}}`)})

	temp := <-temps
	assert.Equal(t, "edge-001", temp.DeviceID)
	assert.Equal(t, 15.5, temp.Value)

	hum := <-hums
	assert.Equal(t, 92.0, hum.Value)

	msg := <-tele
	assert.Equal(t, "edge-001", msg.DeviceID)
	assert.JSONEq(t, `{"data":{}}`, string(msg.Body))
}

func TestSubscriberDropsBadPayload(t *testing.T) {
	client := &fakeClient{}
	temps := make(chan *models.TemperatureReading, 1)
	sub := NewSubscriber(client, SubscriberConfig{TemperatureTopic: "sensor/+/temperature"}, temps, nil, nil)
	require.NoError(t, sub.SubscribeAll())
	assert.Len(t, client.subscribed, 1)

	sub.handleTemperature(client, fakeMessage{topic: "sensor/edge-001/temperature", payload: []byte("warm")})
	sub.handleTemperature(client, fakeMessage{topic: "temperature", payload: []byte("21")})
	assert.Empty(t, temps)
}

func TestSubscriberDropsWhenChannelFull(t *testing.T) {
	client := &fakeClient{}
	temps := make(chan *models.TemperatureReading)
	sub := NewSubscriber(client, SubscriberConfig{}, temps, nil, nil)
	sub.sendTimeout = time.Millisecond

	done := make(chan struct{})
	go func() {
		sub.handleTemperature(client, fakeMessage{topic: "sensor/a/temperature", payload: []byte("1")})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler blocked on a full channel")
	}
}

func TestTelemetryPublisherUpload(t *testing.T) {
	client := &fakeClient{}
	tp := NewTelemetryPublisher(NewPublisher(client), "telemetry/{device_id}")

	status := tp.Upload(context.Background(), models.TelemetryPayload{DeviceID: "edge-007", Temperature: 50, Humidity: 30})

	require.True(t, status.Success, status.Error)
	assert.Equal(t, "mqtt://telemetry/edge-007", status.Endpoint)
	require.Len(t, client.published, 1)
	assert.Equal(t, "telemetry/edge-007", client.published[0].topic)

	var env models.TelemetryEnvelope
	require.NoError(t, json.Unmarshal(client.published[0].payload, &env))
	assert.Equal(t, "50.0", env.Data.Temperature)
	assert.Equal(t, "0.3", env.Data.Humidity)
}

func TestTelemetryPublisherFailures(t *testing.T) {
	client := &fakeClient{publishErr: errors.New("not connected")}
	tp := NewTelemetryPublisher(NewPublisher(client), "telemetry/{device_id}")

	status := tp.Upload(context.Background(), models.TelemetryPayload{DeviceID: "x"})
	assert.False(t, status.Success)
	assert.Contains(t, status.Error, "not connected")

	hanging := &fakeClient{hang: true}
	tp = NewTelemetryPublisher(NewPublisher(hanging), "telemetry/{device_id}")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	status = tp.Upload(ctx, models.TelemetryPayload{DeviceID: "x"})
	assert.False(t, status.Success)
	assert.Equal(t, "Request timeout", status.Error)
}

func TestAlertNotifier(t *testing.T) {
	client := &fakeClient{}
	n := NewAlertNotifier(NewPublisher(client), "alerts/{alert_type}")

	err := n.Notify(context.Background(), models.AlertRecord{
		AlertID:   "a-1",
		AlertType: models.AlertTypeSensorMalfunction,
		Subject:   "Sensor malfunction",
		Status:    models.AlertStatusSent,
	})
	require.NoError(t, err)
	require.Len(t, client.published, 1)
	assert.Equal(t, "alerts/SENSOR_MALFUNCTION", client.published[0].topic)

	var rec models.AlertRecord
	require.NoError(t, json.Unmarshal(client.published[0].payload, &rec))
	assert.Equal(t, "a-1", rec.AlertID)
}
