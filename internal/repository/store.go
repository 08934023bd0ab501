package repository

import (
	"context"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// FaceStore persists named face descriptors keyed by user. The backend is
// chosen once at startup (durable GORM store or in-memory fallback) and
// callers must not depend on which one is active.
type FaceStore interface {
	// Register appends one record. The descriptor must be non-empty and, when
	// the store was built with a fixed dimensionality, match it exactly.
	Register(ctx context.Context, name string, descriptor domain.Descriptor, userID string) (*domain.FaceRecord, error)

	// List returns record metadata without descriptor payloads, newest first.
	List(ctx context.Context, userID string) ([]domain.FaceMeta, error)

	// ListWithDescriptors returns full records including descriptors, in no
	// particular order.
	ListWithDescriptors(ctx context.Context, userID string) ([]domain.FaceRecord, error)

	// Delete removes a record by ID. Deleting an unknown ID still reports
	// success.
	Delete(ctx context.Context, id string) (bool, error)

	// SetImageURL attaches a snapshot URL to a just-created record. Best
	// effort; the descriptor payload is never touched.
	SetImageURL(ctx context.Context, id, url string) error
}

// validateRegistration applies the shared pre-write checks for both backends.
func validateRegistration(name string, descriptor domain.Descriptor, dimensions int) error {
	if name == "" {
		return domain.NewValidationError("name", "must not be empty")
	}
	if len(descriptor) == 0 {
		return domain.NewValidationError("descriptor", "must not be empty")
	}
	if dimensions > 0 && len(descriptor) != dimensions {
		return domain.NewValidationError("descriptor", "wrong dimensionality")
	}
	return nil
}

// normalizeUserID substitutes the default tenant for an absent user ID.
func normalizeUserID(userID string) string {
	if userID == "" {
		return domain.DefaultUserID
	}
	return userID
}
