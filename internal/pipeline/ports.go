package pipeline

import (
	"context"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// FrameSource is the camera abstraction the controller samples frames from.
// Open and Close bracket one capture session; Grab returns the most recent
// still frame.
type FrameSource interface {
	Open(ctx context.Context) error
	Grab(ctx context.Context) (*domain.Frame, error)
	Close() error
}

// FaceEmbedder is the external detection+embedding model. DetectSingle
// returns domain.ErrNoFaceDetected when the frame contains no face.
type FaceEmbedder interface {
	DetectAll(ctx context.Context, frame *domain.Frame) ([]domain.Detection, error)
	DetectSingle(ctx context.Context, frame *domain.Frame) (*domain.Detection, error)
}

// SnapshotStore persists a registration snapshot and returns its public URL.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, key string, frame *domain.Frame) (string, error)
}

// Announcer fans user-facing events out to banners and speech.
type Announcer interface {
	Notify(ctx context.Context, message string, severity domain.Severity) domain.Notification
}
