package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"monitor-observer/src/helpers"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
	"monitor-observer/src/session"
)

// -----------------------------------------------------------------------------

func testClientConfig(baseURL string) *models.MConfig {
	return &models.MConfig{
		API: models.MAPIConfig{
			BaseURL:          baseURL,
			RequestTimeout:   5,
			TokenWaitSeconds: 1,
		},
	}
}

func newTestClient(t *testing.T, baseURL, token string) (*Client, *session.Manager) {
	t.Helper()
	sess := session.NewManager(logger.NewLogger("Session"))
	if token != "" {
		sess.SetSession(&models.MSession{AccessToken: token})
	}
	c := NewClient(testClientConfig(baseURL), sess, logger.NewLogger("RestClient"))
	return c, sess
}

// -----------------------------------------------------------------------------

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://host:8099/api", "http://host:8099/api"},
		{"http://host:8099", "http://host:8099/api"},
		{"http://host:8099/", "http://host:8099/api"},
		{"host:8099", "http://host:8099/api"},
		{"https://host/api/", "https://host/api"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// -----------------------------------------------------------------------------

func TestRequestCarriesBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.MSensor{})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, "secret-token")
	if _, err := NewAPI(c).ListSensors(context.Background()); err != nil {
		t.Fatalf("ListSensors: %v", err)
	}

	if got := gotAuth.Load(); got != "Bearer secret-token" {
		t.Fatalf("Authorization = %q", got)
	}
}

// -----------------------------------------------------------------------------

// A 401 is retried exactly once with a freshly fetched token; the second
// attempt's success is the caller's result.
func TestUnauthorizedRetriedOnce(t *testing.T) {
	var calls int32
	var sess *session.Manager
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// The provider refreshes behind the client's back; the retry
			// must pick up the fresh token.
			sess.SetSession(&models.MSession{AccessToken: "fresh"})
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			t.Errorf("retry Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode([]models.MSensor{{ID: 1, Name: "s"}})
	}))
	defer srv.Close()

	c, sess := newTestClient(t, srv.URL, "stale")

	sensors, err := NewAPI(c).ListSensors(context.Background())
	if err != nil {
		t.Fatalf("ListSensors: %v", err)
	}
	if len(sensors) != 1 || sensors[0].ID != 1 {
		t.Fatalf("sensors = %+v", sensors)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("server saw %d requests, want 2", n)
	}
}

// -----------------------------------------------------------------------------

// A second 401 is final: no third attempt, error surfaced with the status.
func TestSecondUnauthorizedIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, "rejected")

	_, err := NewAPI(c).ListSensors(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	var reqErr *helpers.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want RequestError with 401", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("server saw %d requests, want exactly 2", n)
	}
}

// -----------------------------------------------------------------------------

func TestNoSessionFailsWithoutRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, "")

	_, err := NewAPI(c).ListSensors(context.Background())
	var authErr *helpers.AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthRequiredError", err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("server saw %d requests without a session", n)
	}
}

// -----------------------------------------------------------------------------

func TestServerErrorSurfacedWithStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, "tok")

	err := c.Get(context.Background(), "/devices", nil, nil)
	var reqErr *helpers.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("err = %v, want RequestError 502", err)
	}
}

// -----------------------------------------------------------------------------

func TestSensorHistoryQueryEncoding(t *testing.T) {
	var gotPath, gotStart, gotEnd atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		gotStart.Store(r.URL.Query().Get("start"))
		gotEnd.Store(r.URL.Query().Get("end"))
		json.NewEncoder(w).Encode([]models.MReading{})
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, "tok")

	start := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	if _, err := NewAPI(c).SensorHistory(context.Background(), 42, start, end); err != nil {
		t.Fatalf("SensorHistory: %v", err)
	}

	if gotPath.Load() != "/api/sensors/42/history_range" {
		t.Errorf("path = %q", gotPath.Load())
	}
	if gotStart.Load() != "2026-08-29T09:00:00Z" {
		t.Errorf("start = %q", gotStart.Load())
	}
	if gotEnd.Load() != "2026-08-29T10:00:00Z" {
		t.Errorf("end = %q", gotEnd.Load())
	}
}
