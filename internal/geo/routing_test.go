package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewClient(Options{
		PostcodeURL: srv.URL,
		RoutingURL:  srv.URL + "/v2/directions/driving-car",
		RoutingKey:  "test-key",
		Timeout:     timeout,
	}, zap.NewNop())
}

var (
	office   = Coordinates{Latitude: 51.0, Longitude: 0.0}
	property = Coordinates{Latitude: 51.0, Longitude: 0.01}
)

func TestComputeTravel(t *testing.T) {
	sent := make(chan routeRequest, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req routeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sent <- req
		_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":1234.5,"duration":841}}]}`))
	}, time.Second)

	travel, err := c.ComputeTravel(context.Background(), office, property)
	if err != nil {
		t.Fatalf("ComputeTravel: %v", err)
	}

	if travel.DistanceKm != 1.23 {
		t.Errorf("distance = %v, want 1.23", travel.DistanceKm)
	}
	// 841s is 14m01s, rounded up
	if travel.DurationMin != 15 {
		t.Errorf("duration = %d, want 15", travel.DurationMin)
	}

	// ORS takes [lon, lat]
	got := <-sent
	want := [][2]float64{{0.0, 51.0}, {0.01, 51.0}}
	if len(got.Coordinates) != 2 || got.Coordinates[0] != want[0] || got.Coordinates[1] != want[1] {
		t.Errorf("coordinates = %v, want %v", got.Coordinates, want)
	}
}

func TestComputeTravelMinimumOneMinute(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[{"summary":{}}]}`))
	}, time.Second)

	travel, err := c.ComputeTravel(context.Background(), office, office)
	if err != nil {
		t.Fatalf("ComputeTravel: %v", err)
	}
	if travel.DurationMin != 1 || travel.DistanceKm != 0 {
		t.Fatalf("got %+v, want 0km / 1min", travel)
	}
}

func TestComputeTravelFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		want string
	}{
		{"upstream 500", `{}`, http.StatusInternalServerError, "geo_upstream_error"},
		{"no routes", `{"routes":[]}`, http.StatusOK, "geo_no_route"},
		{"negative duration", `{"routes":[{"summary":{"distance":10,"duration":-3}}]}`, http.StatusOK, "geo_malformed"},
		{"not json", `<html>`, http.StatusOK, "geo_malformed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			}, time.Second)

			_, err := c.ComputeTravel(context.Background(), office, property)
			if !httperr.Is(err, httperr.KindDependency) {
				t.Fatalf("expected dependency error, got %v", err)
			}
			if !httperr.HasCode(err, tc.want) {
				t.Fatalf("expected code %s, got %v", tc.want, err)
			}
		})
	}
}

func TestComputeTravelTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := c.ComputeTravel(context.Background(), office, property)
	if !httperr.HasCode(err, "geo_timeout") {
		t.Fatalf("expected geo_timeout, got %v", err)
	}
}

func TestComputeTravelRejectsBadCoordinates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	}, time.Second)

	_, err := c.ComputeTravel(context.Background(), Coordinates{Latitude: 91}, property)
	if !httperr.Is(err, httperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRoundUpMinutes(t *testing.T) {
	cases := map[float64]int{0: 1, 1: 1, 60: 1, 61: 2, 899.9: 15, 900: 15}
	for secs, want := range cases {
		if got := RoundUpMinutes(secs); got != want {
			t.Errorf("RoundUpMinutes(%v) = %d, want %d", secs, got, want)
		}
	}
}
