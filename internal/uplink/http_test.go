package uplink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hazard-monitor/internal/models"
)

func TestUploadPostsEnvelope(t *testing.T) {
	var gotBody []byte
	var gotPath, gotType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Data inserted successfully","alert_level":"NORMAL"}`))
	}))
	defer srv.Close()

	up := NewHTTPUploader(srv.URL+"/", nil, time.Second)
	status := up.Upload(context.Background(), models.TelemetryPayload{Temperature: 15.5, Humidity: 92, Alert: "Normal"})

	require.True(t, status.Success, status.Error)
	assert.Equal(t, http.StatusOK, status.StatusCode)
	assert.Equal(t, srv.URL+"/sensor-data", status.Endpoint)
	assert.Equal(t, "/sensor-data", gotPath)
	assert.Equal(t, "application/json", gotType)

	var env models.TelemetryEnvelope
	require.NoError(t, json.Unmarshal(gotBody, &env))
	assert.Equal(t, "15.5", env.Data.Temperature)
	assert.Equal(t, "0.92", env.Data.Humidity)

	resp, ok := status.Response.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NORMAL", resp["alert_level"])
}

func TestUploadRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Missing required field: humidity"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	status := NewHTTPUploader(srv.URL, nil, time.Second).Upload(context.Background(), models.TelemetryPayload{})

	assert.False(t, status.Success)
	assert.Equal(t, http.StatusBadRequest, status.StatusCode)
	assert.Contains(t, status.Error, "400")
}

func TestUploadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	status := NewHTTPUploader(srv.URL, nil, time.Minute).Upload(ctx, models.TelemetryPayload{})
	assert.False(t, status.Success)
	assert.Equal(t, "Request timeout", status.Error)
}

func TestUploadUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	status := NewHTTPUploader(url, nil, time.Second).Upload(context.Background(), models.TelemetryPayload{})
	assert.False(t, status.Success)
	assert.NotEmpty(t, status.Error)
	assert.Equal(t, 0, status.StatusCode)
}
