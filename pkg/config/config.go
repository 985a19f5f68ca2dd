package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Device identity
	DeviceID string

	// Sensor-threshold gate (edge)
	FogHumidityThreshold   float64
	FogTempMin             float64
	FogTempMax             float64
	SmokeTempThreshold     float64
	SmokeHumidityThreshold float64

	// Vision
	DetectionThreshold   float64
	ClassifierConfigPath string
	AnalysisWidth        int

	// Frame capture
	CameraURL  string
	FramesDir  string
	FrameCount int
	FrameDelay time.Duration

	// Telemetry delivery
	CloudAPIURL        string
	UploadTimeout      time.Duration
	TelemetryTransport string

	// Edge intake
	EdgeHTTPAddr        string
	SerialPort          string
	SerialBaud          int
	SensorTempDelta     float64
	SensorHumidityDelta float64
	SensorRateLimit     time.Duration

	// Cloud danger thresholds (humidity is a 0-1 fraction)
	TempThreshold     float64
	HumidityThreshold float64
	SmokeThreshold    float64
	FogThreshold      float64

	// Cloud server
	CloudHTTPAddr       string
	StatusCheckInterval time.Duration

	// MQTT Configuration
	MQTTEnabled                 bool
	MQTTBroker                  string
	MQTTClientID                string
	MQTTUsername                string
	MQTTPassword                string
	MQTTTopicTemperature        string
	MQTTTopicHumidity           string
	MQTTTopicTelemetry          string
	MQTTTopicTelemetrySubscribe string
	MQTTTopicAlerts             string

	// Storage: "clickhouse" or "memory"
	StoreBackend string

	// ClickHouse Configuration
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string
}

// GateThresholds are the edge sensor-gate bounds.
type GateThresholds struct {
	FogHumidityMin   float64
	FogTempMin       float64
	FogTempMax       float64
	SmokeTempMin     float64
	SmokeHumidityMax float64
}

// CloudThresholds are the backend danger bounds.
type CloudThresholds struct {
	Temperature float64
	Humidity    float64
	Smoke       float64
	Fog         float64
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		DeviceID: getEnv("DEVICE_ID", "edge-001"),

		FogHumidityThreshold:   getEnvFloat("FOG_HUMIDITY_THRESHOLD", 90.0),
		FogTempMin:             getEnvFloat("FOG_TEMP_MIN", 5.0),
		FogTempMax:             getEnvFloat("FOG_TEMP_MAX", 20.0),
		SmokeTempThreshold:     getEnvFloat("SMOKE_TEMP_THRESHOLD", 45.0),
		SmokeHumidityThreshold: getEnvFloat("SMOKE_HUMIDITY_THRESHOLD", 40.0),

		DetectionThreshold:   getEnvFloat("DETECTION_THRESHOLD", 0.45),
		ClassifierConfigPath: getEnv("CLASSIFIER_CONFIG_PATH", ""),
		AnalysisWidth:        getEnvInt("ANALYSIS_WIDTH", 640),

		CameraURL:  getEnv("CAMERA_URL", "http://192.168.15.66:8080/video"),
		FramesDir:  getEnv("FRAMES_DIR", ""),
		FrameCount: getEnvInt("FRAME_COUNT", 24),
		FrameDelay: getEnvDuration("FRAME_DELAY", 100*time.Millisecond),

		CloudAPIURL:        getEnv("CLOUD_API_URL", "http://localhost:8080"),
		UploadTimeout:      getEnvDuration("UPLOAD_TIMEOUT", 10*time.Second),
		TelemetryTransport: getEnv("TELEMETRY_TRANSPORT", "http"),

		EdgeHTTPAddr:        getEnv("EDGE_HTTP_ADDR", ":5000"),
		SerialPort:          getEnv("SERIAL_PORT", ""),
		SerialBaud:          getEnvInt("SERIAL_BAUD", 115200),
		SensorTempDelta:     getEnvFloat("SENSOR_TEMP_DELTA", 0.5),
		SensorHumidityDelta: getEnvFloat("SENSOR_HUMIDITY_DELTA", 2.0),
		SensorRateLimit:     getEnvDuration("SENSOR_RATE_LIMIT", 5*time.Second),

		TempThreshold:     getEnvFloat("TEMP_THRESHOLD", 45.0),
		HumidityThreshold: getEnvFloat("HUMIDITY_THRESHOLD", 0.3),
		SmokeThreshold:    getEnvFloat("SMOKE_THRESHOLD", 0.5),
		FogThreshold:      getEnvFloat("FOG_THRESHOLD", 0.5),

		CloudHTTPAddr:       getEnv("CLOUD_HTTP_ADDR", ":8080"),
		StatusCheckInterval: getEnvDuration("STATUS_CHECK_INTERVAL", 2*time.Hour),

		MQTTEnabled:                 getEnvBool("MQTT_ENABLED", true),
		MQTTBroker:                  getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:                getEnv("MQTT_CLIENT_ID", "hazard-monitor"),
		MQTTUsername:                getEnv("MQTT_USERNAME", ""),
		MQTTPassword:                getEnv("MQTT_PASSWORD", ""),
		MQTTTopicTemperature:        getEnv("MQTT_TOPIC_TEMPERATURE", "sensor/+/temperature"),
		MQTTTopicHumidity:           getEnv("MQTT_TOPIC_HUMIDITY", "sensor/+/humidity"),
		MQTTTopicTelemetry:          getEnv("MQTT_TOPIC_TELEMETRY", "telemetry/{device_id}"),
		MQTTTopicTelemetrySubscribe: getEnv("MQTT_TOPIC_TELEMETRY_SUB", "telemetry/+"),
		MQTTTopicAlerts:             getEnv("MQTT_TOPIC_ALERTS", "alerts/{alert_type}"),

		StoreBackend: getEnv("STORE_BACKEND", "clickhouse"),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "hazard"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),
	}
}

// GateThresholds returns the edge sensor-gate configuration.
func (c *Config) GateThresholds() GateThresholds {
	return GateThresholds{
		FogHumidityMin:   c.FogHumidityThreshold,
		FogTempMin:       c.FogTempMin,
		FogTempMax:       c.FogTempMax,
		SmokeTempMin:     c.SmokeTempThreshold,
		SmokeHumidityMax: c.SmokeHumidityThreshold,
	}
}

// CloudThresholds returns the backend danger configuration.
func (c *Config) CloudThresholds() CloudThresholds {
	return CloudThresholds{
		Temperature: c.TempThreshold,
		Humidity:    c.HumidityThreshold,
		Smoke:       c.SmokeThreshold,
		Fog:         c.FogThreshold,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	durationValue, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return durationValue
}
