// Package speech abstracts the text-to-speech engine used for voice output.
// Overlapping utterances are queued by the engine, not by callers.
package speech

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// Synthesizer speaks a message aloud. Implementations must be safe for
// concurrent use; callers fire and forget.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Config holds configuration for the speech client.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Voice    string
}

// New selects a Synthesizer from configuration. An empty or "none" provider
// yields the no-op engine.
func New(cfg *Config) Synthesizer {
	if cfg == nil || cfg.Provider == "" || cfg.Provider == "none" {
		return Noop{}
	}
	return NewHTTPSynthesizer(cfg)
}

// Noop discards all utterances. Used when speech output is handled entirely
// by the browser client.
type Noop struct{}

// Speak discards the text.
func (Noop) Speak(ctx context.Context, text string) error { return nil }

// HTTPSynthesizer pushes utterances to a remote TTS gateway. The gateway owns
// the utterance queue.
type HTTPSynthesizer struct {
	client  *resty.Client
	baseURL string
	voice   string
}

// NewHTTPSynthesizer creates a TTS client.
func NewHTTPSynthesizer(cfg *Config) *HTTPSynthesizer {
	client := resty.New()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	client.SetHeader("Content-Type", "application/json")

	return &HTTPSynthesizer{
		client:  client,
		baseURL: cfg.BaseURL,
		voice:   cfg.Voice,
	}
}

type speakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// Speak enqueues one utterance with the gateway.
func (s *HTTPSynthesizer) Speak(ctx context.Context, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(speakRequest{Text: text, Voice: s.voice}).
		Post(s.baseURL + "/v1/speak")
	if err != nil {
		return &domain.ExternalServiceError{Provider: "speech", Err: err}
	}
	if resp.IsError() {
		return &domain.ExternalServiceError{
			Provider: "speech",
			Status:   fmt.Sprintf("%d", resp.StatusCode()),
		}
	}
	return nil
}
