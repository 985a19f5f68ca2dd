package uplink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"hazard-monitor/internal/models"
)

// HTTPClient is the part of *http.Client the uploader needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPUploader posts telemetry envelopes to the cloud API
type HTTPUploader struct {
	client   HTTPClient
	endpoint string
}

// NewHTTPUploader creates an uploader for {baseURL}/sensor-data.
// A nil client uses an *http.Client with the given timeout.
func NewHTTPUploader(baseURL string, client HTTPClient, timeout time.Duration) *HTTPUploader {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPUploader{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + "/sensor-data",
	}
}

// Endpoint returns the URL telemetry is posted to
func (u *HTTPUploader) Endpoint() string {
	return u.endpoint
}

// Upload posts the payload's wire envelope. Any non-2xx response counts as failure.
func (u *HTTPUploader) Upload(ctx context.Context, payload models.TelemetryPayload) models.UploadStatus {
	status := models.UploadStatus{Endpoint: u.endpoint}

	body, err := json.Marshal(payload.Envelope())
	if err != nil {
		status.Error = fmt.Sprintf("failed to marshal telemetry: %v", err)
		return status
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		status.Error = fmt.Sprintf("failed to create request: %v", err)
		return status
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("Uplink: Sending data to cloud: %s", u.endpoint)
	resp, err := u.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			status.Error = "Request timeout"
		} else {
			status.Error = err.Error()
		}
		return status
	}
	defer resp.Body.Close()

	status.StatusCode = resp.StatusCode
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status.Error = fmt.Sprintf("cloud API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		return status
	}

	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err == nil {
		status.Response = decoded
	}
	status.Success = true
	return status
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
