package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
)

func TestSafetyScore(t *testing.T) {
	tests := []struct {
		name            string
		durationSeconds int
		want            int
	}{
		{name: "short route gets a bonus", durationSeconds: 600, want: 85},
		{name: "long route gets a penalty", durationSeconds: 3600, want: 65},
		{name: "mid-length route keeps the base", durationSeconds: 1800, want: 75},
		{name: "boundary at 15 minutes is not short", durationSeconds: 900, want: 75},
		{name: "boundary at 45 minutes is not long", durationSeconds: 2700, want: 75},
		{name: "zero duration", durationSeconds: 0, want: 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafetyScore(tt.durationSeconds); got != tt.want {
				t.Errorf("SafetyScore(%d) = %d, want %d", tt.durationSeconds, got, tt.want)
			}
		})
	}
}

func TestSafetyScore_BoundedAndMonotonic(t *testing.T) {
	prev := SafetyScore(longRouteSecs)
	for secs := longRouteSecs; secs < longRouteSecs*4; secs += 600 {
		got := SafetyScore(secs)
		if got < safetyMin || got > safetyMax {
			t.Fatalf("SafetyScore(%d) = %d outside [%d, %d]", secs, got, safetyMin, safetyMax)
		}
		if got > prev {
			t.Fatalf("SafetyScore increased with duration: %d -> %d at %ds", prev, got, secs)
		}
		prev = got
	}
}

func TestRouteService_GetRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("destination") == "" {
			t.Error("missing destination query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{"legs": [{
				"distance": {"text": "1.2 km"},
				"duration": {"text": "10 mins", "value": 600},
				"steps": [
					{"html_instructions": "Head <b>north</b> on Main St"},
					{"html_instructions": "Turn <b>left</b>"}
				]
			}]}]
		}`))
	}))
	defer srv.Close()

	svc := NewRouteService(&RouteConfig{BaseURL: srv.URL, Mode: "walking"}, logger.GetDefault())

	route, err := svc.GetRoute(context.Background(), domain.LatLng{Lat: 1, Lng: 2}, "Central Station")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if route.DurationSeconds != 600 {
		t.Errorf("duration = %d, want 600", route.DurationSeconds)
	}
	if route.SafetyScore != 85 {
		t.Errorf("safety score = %d, want 85", route.SafetyScore)
	}
	if len(route.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(route.Steps))
	}
	if route.Steps[0] != "Head north on Main St" {
		t.Errorf("step = %q, want HTML stripped", route.Steps[0])
	}
}

func TestRouteService_ProviderStatusSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	}))
	defer srv.Close()

	svc := NewRouteService(&RouteConfig{BaseURL: srv.URL, Mode: "walking"}, logger.GetDefault())

	_, err := svc.GetRoute(context.Background(), domain.LatLng{}, "nowhere")
	if err == nil {
		t.Fatal("expected error")
	}
	extErr, ok := err.(*domain.ExternalServiceError)
	if !ok {
		t.Fatalf("got %T, want *domain.ExternalServiceError", err)
	}
	if extErr.Status != "ZERO_RESULTS" {
		t.Errorf("status = %q, want ZERO_RESULTS", extErr.Status)
	}
}

func TestRouteService_EmptyDestination(t *testing.T) {
	svc := NewRouteService(&RouteConfig{BaseURL: "http://unused", Mode: "walking"}, logger.GetDefault())

	_, err := svc.GetRoute(context.Background(), domain.LatLng{}, "")
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Fatalf("got %T, want *domain.ValidationError", err)
	}
}
