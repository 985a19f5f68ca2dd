package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hazard-monitor/internal/aggregator"
	"hazard-monitor/internal/camera"
	"hazard-monitor/internal/camera/ipcam"
	"hazard-monitor/internal/detection"
	"hazard-monitor/internal/mqtt"
	"hazard-monitor/internal/routes"
	"hazard-monitor/internal/sensor"
	"hazard-monitor/internal/services"
	"hazard-monitor/internal/uplink"
	"hazard-monitor/internal/vision"
	"hazard-monitor/pkg/config"
)

func main() {
	log.Println("Starting hazard monitor edge node...")

	// Load configuration
	cfg := config.Load()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Vision ===
	classifierConfig, err := vision.LoadClassifierConfig(cfg.ClassifierConfigPath)
	if err != nil {
		log.Fatalf("Failed to load classifier config: %v", err)
	}
	frameAggregator := vision.NewAggregator(classifierConfig, cfg.DetectionThreshold)

	// === Frame source ===
	var source camera.FrameSource
	if cfg.FramesDir != "" {
		log.Printf("Using image directory %s as frame source", cfg.FramesDir)
		source = camera.NewDirSource(cfg.FramesDir, cfg.AnalysisWidth)
	} else {
		log.Printf("Using IP camera %s as frame source", cfg.CameraURL)
		source = ipcam.NewSource(cfg.CameraURL, cfg.AnalysisWidth)
	}

	// === MQTT (optional) ===
	var mqttClient *mqtt.Client
	var subscriber *mqtt.Subscriber
	if cfg.MQTTEnabled {
		log.Println("Connecting to MQTT broker...")
		mqttClient, err = mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID + "-edge-" + cfg.DeviceID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			OnConnect: func() {
				if subscriber != nil {
					if err := subscriber.SubscribeAll(); err != nil {
						log.Printf("MQTT: Failed to resubscribe: %v", err)
					}
				}
			},
		})
		if err != nil {
			log.Printf("MQTT unavailable, continuing with serial/HTTP intake only: %v", err)
			mqttClient = nil
		} else {
			defer mqttClient.Close()
		}
	}

	// === Telemetry uplink ===
	var uploader detection.Uploader
	switch {
	case cfg.TelemetryTransport == "mqtt" && mqttClient != nil:
		log.Printf("Telemetry via MQTT topic %s", cfg.MQTTTopicTelemetry)
		uploader = mqtt.NewTelemetryPublisher(mqtt.NewPublisher(mqttClient.GetNativeClient()), cfg.MQTTTopicTelemetry)
	default:
		httpUploader := uplink.NewHTTPUploader(cfg.CloudAPIURL, nil, cfg.UploadTimeout)
		log.Printf("Telemetry via HTTP %s", httpUploader.Endpoint())
		uploader = httpUploader
	}

	// === Escalation controller ===
	controller := detection.NewController(
		detection.NewSensorGate(cfg.GateThresholds()),
		source,
		frameAggregator,
		uploader,
		detection.ControllerConfig{
			DeviceID:      cfg.DeviceID,
			FrameCount:    cfg.FrameCount,
			FrameDelay:    cfg.FrameDelay,
			UploadTimeout: cfg.UploadTimeout,
		},
	)

	// === Sensor intake ===
	sensorAggregator := aggregator.NewSensorAggregator(aggregator.ChangeThresholds{
		TemperatureDelta: cfg.SensorTempDelta,
		HumidityDelta:    cfg.SensorHumidityDelta,
		RateLimit:        cfg.SensorRateLimit,
	})
	sensorService := services.NewSensorService(sensorAggregator, controller, services.DefaultSensorServiceConfig())
	go sensorService.Start(ctx)

	if mqttClient != nil {
		subscriber = mqtt.NewSubscriber(
			mqttClient.GetNativeClient(),
			mqtt.SubscriberConfig{
				TemperatureTopic: cfg.MQTTTopicTemperature,
				HumidityTopic:    cfg.MQTTTopicHumidity,
			},
			sensorService.TempChan,
			sensorService.HumidityChan,
			nil,
		)
		if err := subscriber.SubscribeAll(); err != nil {
			log.Fatalf("Failed to subscribe to MQTT topics: %v", err)
		}
	}

	if cfg.SerialPort != "" {
		reader, err := sensor.Open(cfg.SerialPort, cfg.SerialBaud, cfg.DeviceID)
		if err != nil {
			log.Printf("Serial sensor unavailable: %v", err)
		} else {
			go func() {
				if err := reader.Monitor(ctx, sensorService.PairChan); err != nil {
					log.Printf("Serial: Monitor stopped: %v", err)
				}
			}()
		}
	}

	// === HTTP API ===
	server := &http.Server{
		Addr:              cfg.EdgeHTTPAddr,
		Handler:           routes.SetupEdgeRoutes(controller),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Edge API listening on %s", cfg.EdgeHTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// === Log startup info ===
	log.Println("=== Hazard monitor edge node is running ===")
	log.Printf("Device: %s", cfg.DeviceID)
	log.Printf("Fog gate: humidity >= %.1f%%, %.1f°C - %.1f°C", cfg.FogHumidityThreshold, cfg.FogTempMin, cfg.FogTempMax)
	log.Printf("Smoke gate: temperature >= %.1f°C, humidity <= %.1f%%", cfg.SmokeTempThreshold, cfg.SmokeHumidityThreshold)
	log.Printf("Capture: %d frames, %v apart, analysis width %d", cfg.FrameCount, cfg.FrameDelay, cfg.AnalysisWidth)
	log.Println("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	if pair, ok := sensorAggregator.Latest(cfg.DeviceID); ok {
		log.Printf("Last reading: %.1f°C, %.1f%%", pair.Temperature, pair.Humidity)
	}
	log.Println("Shutdown complete. Goodbye!")
}
