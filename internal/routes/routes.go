package routes

import (
	"log"
	"net/http"
	"time"

	"hazard-monitor/internal/handlers"
	"hazard-monitor/internal/services"
	"hazard-monitor/internal/websocket"
)

// SetupEdgeRoutes registers the edge detection API
func SetupEdgeRoutes(detector handlers.Detector) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", handlers.IndexHandler())
	mux.HandleFunc("GET /early-detection", handlers.EarlyDetectionHandler(detector))

	return logRequests(mux)
}

// SetupCloudRoutes registers the ingestion, query and alerting API
func SetupCloudRoutes(
	ingest *services.IngestService,
	monitor *services.StatusMonitor,
	dispatcher services.AlertDispatcher,
	hub *websocket.Hub,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sensor-data", handlers.InsertSensorDataHandler(ingest))
	mux.HandleFunc("GET /sensor-data", handlers.GetSensorDataHandler(ingest))
	mux.HandleFunc("GET /alerts", handlers.GetAlertsHandler(ingest))
	mux.HandleFunc("POST /alerts/send", handlers.SendAlertHandler(dispatcher))
	mux.HandleFunc("GET /ml-detection", handlers.GetMLDetectionHandler(ingest))

	mux.HandleFunc("POST /sensor-status", handlers.InsertSensorStatusHandler(monitor))
	mux.HandleFunc("GET /sensor-status", handlers.GetSensorStatusHandler(monitor))
	mux.HandleFunc("POST /sensor-status/check", handlers.CheckSensorStatusHandler(monitor))

	if hub != nil {
		mux.HandleFunc("GET /ws", hub.ServeWS)
	}

	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("HTTP: %s %s (%v)", r.Method, r.URL.Path, time.Since(start))
	})
}
