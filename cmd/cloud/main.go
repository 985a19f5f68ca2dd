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

	"hazard-monitor/internal/alerting"
	"hazard-monitor/internal/database"
	"hazard-monitor/internal/mqtt"
	"hazard-monitor/internal/routes"
	"hazard-monitor/internal/services"
	"hazard-monitor/internal/websocket"
	"hazard-monitor/pkg/config"
)

func main() {
	log.Println("Starting hazard monitor cloud backend...")

	// Load configuration
	cfg := config.Load()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Storage ===
	var store database.Store
	if cfg.StoreBackend == "memory" {
		log.Println("Using in-memory store")
		store = database.NewMemoryStore()
	} else {
		db, err := database.NewClickHouseDB(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDB,
			cfg.ClickHouseUser,
			cfg.ClickHousePass,
		)
		if err != nil {
			log.Fatalf("Failed to initialize ClickHouse: %v", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize ClickHouse schema: %v", err)
		}
		store = db
	}
	defer store.Close()

	// === Live feed ===
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// === MQTT (optional) ===
	var mqttClient *mqtt.Client
	var subscriber *mqtt.Subscriber
	if cfg.MQTTEnabled {
		log.Println("Connecting to MQTT broker...")
		client, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID + "-cloud",
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
			log.Printf("MQTT unavailable, serving HTTP ingestion only: %v", err)
		} else {
			mqttClient = client
			defer mqttClient.Close()
		}
	}

	// === Alerting ===
	notifiers := []alerting.Notifier{alerting.LogNotifier{}}
	if mqttClient != nil {
		publisher := mqtt.NewPublisher(mqttClient.GetNativeClient())
		notifiers = append(notifiers, mqtt.NewAlertNotifier(publisher, cfg.MQTTTopicAlerts))
	}
	dispatcher := alerting.NewDispatcher(store, hub, notifiers...)

	// === Services ===
	ingestService := services.NewIngestService(store, dispatcher, hub, cfg.CloudThresholds())
	go ingestService.Start(ctx)

	statusConfig := services.DefaultStatusMonitorConfig()
	statusConfig.PollingInterval = cfg.StatusCheckInterval
	statusMonitor := services.NewStatusMonitor(store, dispatcher, hub, statusConfig)
	go statusMonitor.Start(ctx)

	if mqttClient != nil {
		subscriber = mqtt.NewSubscriber(
			mqttClient.GetNativeClient(),
			mqtt.SubscriberConfig{TelemetryTopic: cfg.MQTTTopicTelemetrySubscribe},
			nil,
			nil,
			ingestService.TelemetryChan,
		)
		if err := subscriber.SubscribeAll(); err != nil {
			log.Fatalf("Failed to subscribe to MQTT topics: %v", err)
		}
	}

	// === HTTP API ===
	server := &http.Server{
		Addr:              cfg.CloudHTTPAddr,
		Handler:           routes.SetupCloudRoutes(ingestService, statusMonitor, dispatcher, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Cloud API listening on %s", cfg.CloudHTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// === Log startup info ===
	th := cfg.CloudThresholds()
	log.Println("=== Hazard monitor cloud backend is running ===")
	log.Printf("Danger thresholds: Temp>%.1f°C, Humidity<%.2f, Smoke>%.2f, Fog>%.2f",
		th.Temperature, th.Humidity, th.Smoke, th.Fog)
	log.Printf("Status check every %v", cfg.StatusCheckInterval)
	if mqttClient != nil {
		log.Printf("MQTT Topics:")
		log.Printf("  - Telemetry: %s", cfg.MQTTTopicTelemetrySubscribe)
		log.Printf("  - Alerts:    %s", cfg.MQTTTopicAlerts)
	}
	log.Println("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	cancel()
	ingestService.Wait()

	log.Println("Shutdown complete. Goodbye!")
}
