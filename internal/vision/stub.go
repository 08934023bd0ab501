package vision

import (
	"context"
	"errors"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// StubEmbedder is a development embedder used when no inference service is
// configured (vision.provider = "stub"). It always reports zero faces, which
// keeps the detection loop and registration paths exercisable without a model.
type StubEmbedder struct{}

// NewStubEmbedder creates the stub.
func NewStubEmbedder() *StubEmbedder {
	return &StubEmbedder{}
}

// DetectAll reports no faces.
func (e *StubEmbedder) DetectAll(ctx context.Context, frame *domain.Frame) ([]domain.Detection, error) {
	return nil, nil
}

// DetectSingle reports no face.
func (e *StubEmbedder) DetectSingle(ctx context.Context, frame *domain.Frame) (*domain.Detection, error) {
	return nil, domain.ErrNoFaceDetected
}

// StaticSource serves a fixed frame. Used in development when no camera
// stream is configured.
type StaticSource struct {
	frame *domain.Frame
}

// NewStaticSource creates a source that always returns frame.
func NewStaticSource(frame *domain.Frame) *StaticSource {
	return &StaticSource{frame: frame}
}

// Open is a no-op.
func (s *StaticSource) Open(ctx context.Context) error { return nil }

// Grab returns the fixed frame.
func (s *StaticSource) Grab(ctx context.Context) (*domain.Frame, error) {
	if s.frame == nil {
		return nil, errors.New("no frame configured")
	}
	return s.frame, nil
}

// Close is a no-op.
func (s *StaticSource) Close() error { return nil }
