package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
)

// RouteConfig holds configuration for the route service.
type RouteConfig struct {
	APIKey  string
	BaseURL string
	Mode    string // travel mode, e.g. "walking"
}

// RouteService resolves navigation requests against the Directions API and
// derives a safety score for the returned route. Results are built fresh per
// request and never cached.
type RouteService struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	mode    string
	logger  *logger.Logger
}

// NewRouteService creates a new route service.
func NewRouteService(cfg *RouteConfig, log *logger.Logger) *RouteService {
	return &RouteService{
		client:  resty.New(),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		mode:    cfg.Mode,
		logger:  log,
	}
}

// Directions API response structures (the subset this service reads).
type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Routes       []struct {
		Legs []struct {
			Distance struct {
				Text string `json:"text"`
			} `json:"distance"`
			Duration struct {
				Text  string `json:"text"`
				Value int    `json:"value"` // seconds
			} `json:"duration"`
			Steps []struct {
				HTMLInstructions string `json:"html_instructions"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// GetRoute fetches a route from origin to destination and scores it. Upstream
// failures surface as ExternalServiceError carrying the provider status.
func (s *RouteService) GetRoute(ctx context.Context, origin domain.LatLng, destination string) (*domain.RouteResult, error) {
	if destination == "" {
		return nil, domain.NewValidationError("destination", "must not be empty")
	}

	var result directionsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"origin":      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
			"destination": destination,
			"mode":        s.mode,
			"key":         s.apiKey,
		}).
		SetResult(&result).
		Get(s.baseURL)
	if err != nil {
		return nil, &domain.ExternalServiceError{Provider: "directions", Err: err}
	}
	if resp.IsError() {
		return nil, &domain.ExternalServiceError{
			Provider: "directions",
			Status:   fmt.Sprintf("%d", resp.StatusCode()),
		}
	}
	if result.Status != "OK" || len(result.Routes) == 0 || len(result.Routes[0].Legs) == 0 {
		return nil, &domain.ExternalServiceError{
			Provider: "directions",
			Status:   result.Status,
			Err:      fmt.Errorf("%s", result.ErrorMessage),
		}
	}

	leg := result.Routes[0].Legs[0]
	steps := make([]string, 0, len(leg.Steps))
	for _, step := range leg.Steps {
		if text := stripHTML(step.HTMLInstructions); text != "" {
			steps = append(steps, text)
		}
	}

	route := &domain.RouteResult{
		DistanceText:    leg.Distance.Text,
		DurationText:    leg.Duration.Text,
		DurationSeconds: leg.Duration.Value,
		SafetyScore:     SafetyScore(leg.Duration.Value),
		Steps:           steps,
	}

	s.logger.WithFields(logger.Fields{
		"duration_s":   route.DurationSeconds,
		"safety_score": route.SafetyScore,
		"steps":        len(route.Steps),
	}).Info("Route resolved")

	return route, nil
}

// Safety score bounds and duration thresholds.
const (
	safetyBase     = 75
	safetyMin      = 50
	safetyMax      = 95
	shortRouteSecs = 15 * 60
	longRouteSecs  = 45 * 60
)

// SafetyScore derives a bounded safety score from a route's total duration in
// seconds. Pure and deterministic: base 75, +10 for routes under 15 minutes,
// -10 for routes over 45 minutes, clamped to [50, 95].
func SafetyScore(durationSeconds int) int {
	score := safetyBase
	if durationSeconds < shortRouteSecs {
		score += 10
	}
	if durationSeconds > longRouteSecs {
		score -= 10
	}
	if score < safetyMin {
		score = safetyMin
	}
	if score > safetyMax {
		score = safetyMax
	}
	return score
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML flattens the Directions API's HTML instructions to plain text for
// speech output.
func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.Join(strings.Fields(s), " ")
}
