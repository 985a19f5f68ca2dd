package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"hazard-monitor/internal/models"
)

// Notifier delivers a formatted alert to people or systems
type Notifier interface {
	Notify(ctx context.Context, record models.AlertRecord) error
}

// AlertStore persists dispatched alerts
type AlertStore interface {
	SaveAlert(ctx context.Context, rec *models.AlertRecord) error
}

// Broadcaster pushes events to live dashboards
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// LogNotifier writes alerts to the process log. It is used when no other
// channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, record models.AlertRecord) error {
	log.Printf("Alert %s [%s]: %s\n%s", record.AlertID, record.AlertType, record.Subject, record.Message)
	return nil
}

// Dispatcher formats, delivers and records alerts
type Dispatcher struct {
	notifiers   []Notifier
	store       AlertStore
	broadcaster Broadcaster
	timeout     time.Duration
}

// NewDispatcher creates a dispatcher. store and broadcaster may be nil;
// with no notifiers alerts go to the log.
func NewDispatcher(store AlertStore, broadcaster Broadcaster, notifiers ...Notifier) *Dispatcher {
	if len(notifiers) == 0 {
		notifiers = []Notifier{LogNotifier{}}
	}
	return &Dispatcher{
		notifiers:   notifiers,
		store:       store,
		broadcaster: broadcaster,
		timeout:     10 * time.Second,
	}
}

// Dispatch sends one alert through every notifier and records the outcome.
// The record is stored with status "failed" if any notifier failed, and the
// joined notifier errors are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, alert models.Alert) (models.AlertRecord, error) {
	if alert.Type == "" {
		alert.Type = models.AlertTypeGeneral
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	alertID := uuid.New().String()
	subject, message := FormatMessage(alert, alertID)

	payload, err := json.Marshal(alert)
	if err != nil {
		return models.AlertRecord{}, fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	record := models.AlertRecord{
		AlertID:   alertID,
		Timestamp: alert.Timestamp,
		AlertType: alert.Type,
		Subject:   subject,
		Message:   message,
		Payload:   string(payload),
		Status:    models.AlertStatusSent,
	}

	notifyCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var errs []error
	for _, n := range d.notifiers {
		if err := n.Notify(notifyCtx, record); err != nil {
			errs = append(errs, err)
		}
	}
	notifyErr := errors.Join(errs...)
	if notifyErr != nil {
		record.Status = models.AlertStatusFailed
		log.Printf("Dispatcher: Failed to deliver alert %s: %v", alertID, notifyErr)
	} else {
		log.Printf("Dispatcher: Alert %s (%s) sent", alertID, alert.Type)
	}

	if d.store != nil {
		if err := d.store.SaveAlert(ctx, &record); err != nil {
			log.Printf("Dispatcher: Failed to save alert %s: %v", alertID, err)
			if notifyErr == nil {
				notifyErr = fmt.Errorf("failed to save alert: %w", err)
			}
		}
	}

	if d.broadcaster != nil {
		d.broadcaster.Broadcast("alert", record)
	}

	return record, notifyErr
}
