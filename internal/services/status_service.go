package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"hazard-monitor/internal/alerting"
	"hazard-monitor/internal/database"
	"hazard-monitor/internal/models"
)

// StatusMonitor records equipment health reports and periodically raises a
// SENSOR_MALFUNCTION alert for the latest failing report
type StatusMonitor struct {
	store       database.Store
	dispatcher  AlertDispatcher
	broadcaster Broadcaster

	pollingInterval time.Duration
	problemWindow   int
}

// StatusMonitorConfig holds configuration for the status monitor
type StatusMonitorConfig struct {
	PollingInterval time.Duration // How often to check for failures
	ProblemWindow   int           // How many recent problem reports to look at
}

// DefaultStatusMonitorConfig returns default configuration
func DefaultStatusMonitorConfig() StatusMonitorConfig {
	return StatusMonitorConfig{
		PollingInterval: 2 * time.Hour,
		ProblemWindow:   10,
	}
}

// NewStatusMonitor creates a status monitor. broadcaster may be nil.
func NewStatusMonitor(store database.Store, dispatcher AlertDispatcher, broadcaster Broadcaster, config StatusMonitorConfig) *StatusMonitor {
	return &StatusMonitor{
		store:           store,
		dispatcher:      dispatcher,
		broadcaster:     broadcaster,
		pollingInterval: config.PollingInterval,
		problemWindow:   config.ProblemWindow,
	}
}

// Start runs the periodic check until ctx is cancelled
func (m *StatusMonitor) Start(ctx context.Context) {
	log.Printf("StatusMonitor: Starting, checking every %v", m.pollingInterval)

	ticker := time.NewTicker(m.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("StatusMonitor: Shutdown complete")
			return
		case <-ticker.C:
			if _, err := m.Check(ctx); err != nil {
				log.Printf("StatusMonitor: Check failed: %v", err)
			}
		}
	}
}

// Record parses and stores one status report
func (m *StatusMonitor) Record(ctx context.Context, body []byte) (models.SensorStatus, error) {
	st, err := models.ParseSensorStatus(body)
	if err != nil {
		return models.SensorStatus{}, err
	}

	st.ID = uuid.New().String()
	st.Timestamp = time.Now().UTC()

	if err := m.store.SaveSensorStatus(ctx, &st); err != nil {
		return models.SensorStatus{}, fmt.Errorf("failed to save sensor status: %w", err)
	}

	if st.HasAlert {
		log.Printf("StatusMonitor: Report %s has problems (sensors_ok=%v, cameras_ok=%v)", st.ID, st.SensorsOK, st.CamerasOK)
	}
	if m.broadcaster != nil {
		m.broadcaster.Broadcast("sensor_status", st)
	}
	return st, nil
}

// StatusHistory is the latest report plus recent history
type StatusHistory struct {
	Count        int                   `json:"count"`
	LatestStatus *models.SensorStatus  `json:"latest_status"`
	History      []models.SensorStatus `json:"history"`
}

// History lists recent reports, newest first
func (m *StatusMonitor) History(ctx context.Context, limit int, onlyProblems bool) (StatusHistory, error) {
	statuses, err := m.store.ListSensorStatus(ctx, database.StatusFilter{Limit: limit, OnlyProblems: onlyProblems})
	if err != nil {
		return StatusHistory{}, err
	}

	h := StatusHistory{Count: len(statuses), History: statuses}
	if h.History == nil {
		h.History = []models.SensorStatus{}
	}
	if len(statuses) > 0 {
		latest := statuses[0]
		h.LatestStatus = &latest
	}
	return h, nil
}

// Check looks at the most recent problem report, falling back to the most
// recent report if it carries an alert. It dispatches SENSOR_MALFUNCTION
// when that report names failed equipment and reports whether it did.
func (m *StatusMonitor) Check(ctx context.Context) (bool, error) {
	problems, err := m.store.ListSensorStatus(ctx, database.StatusFilter{Limit: m.problemWindow, OnlyProblems: true})
	if err != nil {
		return false, fmt.Errorf("failed to list problem reports: %w", err)
	}

	var latest *models.SensorStatus
	if len(problems) > 0 {
		latest = &problems[0]
	} else {
		recent, err := m.store.ListSensorStatus(ctx, database.StatusFilter{Limit: 1})
		if err != nil {
			return false, fmt.Errorf("failed to list reports: %w", err)
		}
		if len(recent) > 0 && recent[0].HasAlert {
			latest = &recent[0]
		}
	}

	if latest == nil {
		log.Println("StatusMonitor: All systems operational")
		return false, nil
	}

	alert, ok := alerting.MalfunctionAlert(*latest)
	if !ok {
		log.Printf("StatusMonitor: Report %s has an alert flag but no failed equipment", latest.ID)
		return false, nil
	}

	log.Printf("StatusMonitor: Equipment failure in report %s: sensors=%v cameras=%v",
		latest.ID, alert.Details.FailedSensors, alert.Details.FailedCameras)

	if m.dispatcher == nil {
		return false, nil
	}
	if _, err := m.dispatcher.Dispatch(ctx, alert); err != nil {
		return true, fmt.Errorf("failed to dispatch malfunction alert: %w", err)
	}
	return true, nil
}
