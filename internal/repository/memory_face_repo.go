package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// MemoryFaceRepository is the process-local FaceStore fallback, used when no
// durable backend is configured or reachable at startup.
type MemoryFaceRepository struct {
	mu         sync.RWMutex
	records    []domain.FaceRecord
	dimensions int
}

// NewMemoryFaceRepository creates an empty in-memory store.
func NewMemoryFaceRepository(dimensions int) *MemoryFaceRepository {
	return &MemoryFaceRepository{dimensions: dimensions}
}

// Register appends one face record.
func (r *MemoryFaceRepository) Register(ctx context.Context, name string, descriptor domain.Descriptor, userID string) (*domain.FaceRecord, error) {
	if err := validateRegistration(name, descriptor, r.dimensions); err != nil {
		return nil, err
	}

	record := domain.FaceRecord{
		ID:         uuid.New().String(),
		UserID:     normalizeUserID(userID),
		Name:       name,
		Descriptor: append(domain.Descriptor(nil), descriptor...),
		CreatedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()

	out := record
	return &out, nil
}

// List returns record metadata for a user, newest first.
func (r *MemoryFaceRepository) List(ctx context.Context, userID string) ([]domain.FaceMeta, error) {
	userID = normalizeUserID(userID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]domain.FaceMeta, 0)
	// records are append-ordered, so walking backwards yields newest first
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].UserID == userID {
			metas = append(metas, r.records[i].Meta())
		}
	}
	return metas, nil
}

// ListWithDescriptors returns full records for a user.
func (r *MemoryFaceRepository) ListWithDescriptors(ctx context.Context, userID string) ([]domain.FaceRecord, error) {
	userID = normalizeUserID(userID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.FaceRecord, 0)
	for _, rec := range r.records {
		if rec.UserID == userID {
			copied := rec
			copied.Descriptor = append(domain.Descriptor(nil), rec.Descriptor...)
			out = append(out, copied)
		}
	}
	return out, nil
}

// Delete removes a record by ID; unknown IDs still report success.
func (r *MemoryFaceRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			break
		}
	}
	return true, nil
}

// SetImageURL attaches a snapshot URL to an existing record.
func (r *MemoryFaceRepository) SetImageURL(ctx context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].ImageURL = url
			return nil
		}
	}
	return &domain.ValidationError{Field: "id", Reason: "unknown record"}
}

// Interface conformance checks.
var (
	_ FaceStore = (*MemoryFaceRepository)(nil)
	_ FaceStore = (*FaceRepository)(nil)
)
