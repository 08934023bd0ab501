package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// RestEmbedder calls a remote face-inference service that runs detection and
// embedding extraction on a still frame. The model itself is a black box; this
// client only moves bytes and vectors.
type RestEmbedder struct {
	client  *resty.Client
	baseURL string
}

// EmbedderConfig holds configuration for the inference client.
type EmbedderConfig struct {
	BaseURL string
	APIKey  string
}

// NewRestEmbedder creates a new inference client.
func NewRestEmbedder(cfg *EmbedderConfig) *RestEmbedder {
	client := resty.New()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	client.SetHeader("Content-Type", "application/json")

	return &RestEmbedder{
		client:  client,
		baseURL: cfg.BaseURL,
	}
}

// Inference service request/response structures
type detectRequest struct {
	Image       string `json:"image"` // base64-encoded frame
	ContentType string `json:"content_type,omitempty"`
	MaxFaces    int    `json:"max_faces,omitempty"` // 0 means all
}

type detectResponse struct {
	Faces []struct {
		Box        domain.Box `json:"box"`
		Descriptor []float64  `json:"descriptor"`
		Confidence float64    `json:"confidence"`
	} `json:"faces"`
	Detail string `json:"detail,omitempty"`
}

// DetectAll extracts every face embedding and bounding box from a frame.
func (e *RestEmbedder) DetectAll(ctx context.Context, frame *domain.Frame) ([]domain.Detection, error) {
	return e.detect(ctx, frame, 0)
}

// DetectSingle extracts at most one face from a frame. Returns
// domain.ErrNoFaceDetected when the frame contains no face.
func (e *RestEmbedder) DetectSingle(ctx context.Context, frame *domain.Frame) (*domain.Detection, error) {
	detections, err := e.detect(ctx, frame, 1)
	if err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, domain.ErrNoFaceDetected
	}
	return &detections[0], nil
}

func (e *RestEmbedder) detect(ctx context.Context, frame *domain.Frame, maxFaces int) ([]domain.Detection, error) {
	req := detectRequest{
		Image:       base64.StdEncoding.EncodeToString(frame.Data),
		ContentType: frame.ContentType,
		MaxFaces:    maxFaces,
	}

	var result detectResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(e.baseURL + "/v1/faces/detect")
	if err != nil {
		return nil, &domain.ModelInferenceError{Model: "face-embedding", Err: err}
	}
	if resp.IsError() {
		return nil, &domain.ModelInferenceError{
			Model: "face-embedding",
			Err:   fmt.Errorf("status %d: %s", resp.StatusCode(), result.Detail),
		}
	}

	detections := make([]domain.Detection, 0, len(result.Faces))
	for _, f := range result.Faces {
		detections = append(detections, domain.Detection{
			Box:        f.Box,
			Descriptor: f.Descriptor,
			Confidence: f.Confidence,
		})
	}
	return detections, nil
}
