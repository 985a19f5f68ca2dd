package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"hazard-monitor/internal/alerting"
	"hazard-monitor/internal/database"
	"hazard-monitor/internal/models"
	"hazard-monitor/internal/mqtt"
	"hazard-monitor/pkg/config"
)

// AlertDispatcher sends an alert and records the outcome
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert models.Alert) (models.AlertRecord, error)
}

// Broadcaster pushes events to live dashboards
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// IngestService stores telemetry arriving over HTTP or MQTT, evaluates it
// against the cloud thresholds and raises danger alerts
type IngestService struct {
	store       database.Store
	dispatcher  AlertDispatcher
	broadcaster Broadcaster
	thresholds  config.CloudThresholds

	// Input channel from the MQTT telemetry subscriber
	TelemetryChan chan *mqtt.TelemetryMessage

	dispatchTimeout time.Duration
	pending         sync.WaitGroup
}

// NewIngestService creates an ingest service. broadcaster may be nil.
func NewIngestService(
	store database.Store,
	dispatcher AlertDispatcher,
	broadcaster Broadcaster,
	thresholds config.CloudThresholds,
) *IngestService {
	return &IngestService{
		store:           store,
		dispatcher:      dispatcher,
		broadcaster:     broadcaster,
		thresholds:      thresholds,
		TelemetryChan:   make(chan *mqtt.TelemetryMessage, 100),
		dispatchTimeout: 30 * time.Second,
	}
}

// Start consumes MQTT telemetry until ctx is cancelled, then waits for
// in-flight alert dispatches
func (s *IngestService) Start(ctx context.Context) {
	log.Println("IngestService: Starting...")

	for {
		select {
		case <-ctx.Done():
			log.Println("IngestService: Shutting down...")
			s.Wait()
			log.Println("IngestService: Shutdown complete")
			return
		case msg := <-s.TelemetryChan:
			rec, err := s.Ingest(ctx, msg.Body)
			if err != nil {
				log.Printf("IngestService: Rejected telemetry from %s: %v", msg.DeviceID, err)
				continue
			}
			log.Printf("IngestService: Stored MQTT record %s from %s (%s)", rec.ID, msg.DeviceID, rec.AlertLevel)
		}
	}
}

// Ingest parses, evaluates and stores one telemetry envelope. A DANGER
// record triggers an asynchronous threshold alert.
func (s *IngestService) Ingest(ctx context.Context, body []byte) (models.SensorRecord, error) {
	rec, err := models.ParseTelemetry(body)
	if err != nil {
		return models.SensorRecord{}, err
	}

	rec.ID = uuid.New().String()
	rec.Timestamp = time.Now().UTC()

	decision := alerting.Evaluate(rec, s.thresholds)
	rec.AlertLevel = decision.Level
	rec.DangerConditions = decision.Conditions

	if err := s.store.SaveSensorRecord(ctx, &rec); err != nil {
		return models.SensorRecord{}, fmt.Errorf("failed to save sensor record: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast("sensor_data", rec)
	}

	if decision.IsDanger() {
		log.Printf("IngestService: DANGER for record %s: %v", rec.ID, decision.Conditions)
		s.dispatchAsync(alerting.ThresholdAlert(rec, decision))
	}

	return rec, nil
}

func (s *IngestService) dispatchAsync(alert models.Alert) {
	if s.dispatcher == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		// detached from the request so the alert survives the response
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		if _, err := s.dispatcher.Dispatch(ctx, alert); err != nil {
			log.Printf("IngestService: Alert dispatch failed: %v", err)
		}
	}()
}

// Wait blocks until every asynchronous dispatch has finished
func (s *IngestService) Wait() {
	s.pending.Wait()
}

// SensorRecords lists stored records, newest first
func (s *IngestService) SensorRecords(ctx context.Context, limit int, level models.AlertLevel) ([]models.SensorRecord, error) {
	return s.store.ListSensorRecords(ctx, database.SensorRecordFilter{Limit: limit, AlertLevel: level})
}

// AlertEntry is one row of the alert history. Dispatched alerts and DANGER
// records share this shape.
type AlertEntry struct {
	ID         string               `json:"id"`
	Timestamp  time.Time            `json:"timestamp"`
	AlertType  string               `json:"alert_type"`
	Subject    string               `json:"subject,omitempty"`
	Status     string               `json:"status,omitempty"`
	Conditions []string             `json:"danger_conditions,omitempty"`
	Record     *models.SensorRecord `json:"sensor_data,omitempty"`
}

// AlertTypeDangerDetection tags DANGER records in the alert history
const AlertTypeDangerDetection = "DANGER_DETECTION"

// Alerts merges dispatched alerts with DANGER records, newest first. A
// filter on a dispatched alert type leaves the records out, and the
// DANGER_DETECTION filter leaves dispatched alerts out.
func (s *IngestService) Alerts(ctx context.Context, limit int, alertType string) ([]AlertEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var entries []AlertEntry

	if alertType != AlertTypeDangerDetection {
		alerts, err := s.store.ListAlerts(ctx, database.AlertFilter{Limit: limit, AlertType: models.AlertType(alertType)})
		if err != nil {
			return nil, err
		}
		for _, a := range alerts {
			entries = append(entries, AlertEntry{
				ID:        a.AlertID,
				Timestamp: a.Timestamp,
				AlertType: string(a.AlertType),
				Subject:   a.Subject,
				Status:    a.Status,
			})
		}
	}

	if alertType == "" || alertType == AlertTypeDangerDetection {
		records, err := s.store.ListSensorRecords(ctx, database.SensorRecordFilter{Limit: limit, AlertLevel: models.AlertLevelDanger})
		if err != nil {
			return nil, err
		}
		for i := range records {
			rec := records[i]
			entries = append(entries, AlertEntry{
				ID:         rec.ID,
				Timestamp:  rec.Timestamp,
				AlertType:  AlertTypeDangerDetection,
				Conditions: rec.DangerConditions,
				Record:     &rec,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []AlertEntry{}
	}
	return entries, nil
}

// Detection is the per-class view of one record
type Detection struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Detections map[string]float64 `json:"detection"`
	AlertLevel models.AlertLevel  `json:"alert_level"`
}

// Detections lists per-record class probabilities, keeping records where
// any class reaches minProbability
func (s *IngestService) Detections(ctx context.Context, limit int, minProbability float64) ([]Detection, error) {
	records, err := s.store.ListSensorRecords(ctx, database.SensorRecordFilter{Limit: limit})
	if err != nil {
		return nil, err
	}

	out := []Detection{}
	for _, rec := range records {
		probs := map[string]float64{
			"vapor": rec.ProbabilityVapor.InexactFloat64(),
			"smug":  rec.ProbabilitySmog.InexactFloat64(),
			"smoke": rec.ProbabilitySmoke.InexactFloat64(),
			"fog":   rec.ProbabilityFog.InexactFloat64(),
		}

		keep := false
		for _, p := range probs {
			if p >= minProbability {
				keep = true
				break
			}
		}
		if !keep {
			continue
		}

		out = append(out, Detection{
			ID:         rec.ID,
			Timestamp:  rec.Timestamp,
			Detections: probs,
			AlertLevel: rec.AlertLevel,
		})
	}
	return out, nil
}
