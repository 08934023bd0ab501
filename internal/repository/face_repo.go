package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"gorm.io/gorm"
)

// FaceRepository is the durable FaceStore backed by GORM.
type FaceRepository struct {
	db         *gorm.DB
	dimensions int
}

// NewFaceRepository creates a FaceRepository bound to db. dimensions fixes the
// accepted descriptor length; zero disables the check.
func NewFaceRepository(db *gorm.DB, dimensions int) *FaceRepository {
	return &FaceRepository{db: db, dimensions: dimensions}
}

// Register appends one face record. Records are never updated in place; a user
// re-registering a name simply gains another reference descriptor.
func (r *FaceRepository) Register(ctx context.Context, name string, descriptor domain.Descriptor, userID string) (*domain.FaceRecord, error) {
	if err := validateRegistration(name, descriptor, r.dimensions); err != nil {
		return nil, err
	}

	record := &domain.FaceRecord{
		ID:         uuid.New().String(),
		UserID:     normalizeUserID(userID),
		Name:       name,
		Descriptor: descriptor,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, &domain.ExternalServiceError{Provider: "face store", Err: err}
	}
	return record, nil
}

// List returns record metadata for a user, newest first, without descriptors.
func (r *FaceRepository) List(ctx context.Context, userID string) ([]domain.FaceMeta, error) {
	var records []domain.FaceRecord
	if err := r.db.WithContext(ctx).
		Select("id", "user_id", "name", "image_url", "created_at").
		Where("user_id = ?", normalizeUserID(userID)).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, &domain.ExternalServiceError{Provider: "face store", Err: err}
	}

	metas := make([]domain.FaceMeta, 0, len(records))
	for _, rec := range records {
		metas = append(metas, rec.Meta())
	}
	return metas, nil
}

// ListWithDescriptors returns full records for a user, including descriptor
// payloads. Used to rebuild the matcher cache wholesale.
func (r *FaceRepository) ListWithDescriptors(ctx context.Context, userID string) ([]domain.FaceRecord, error) {
	var records []domain.FaceRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", normalizeUserID(userID)).
		Find(&records).Error; err != nil {
		return nil, &domain.ExternalServiceError{Provider: "face store", Err: err}
	}
	return records, nil
}

// Delete removes a record by ID. Idempotent: deleting an unknown ID still
// reports success.
func (r *FaceRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := r.db.WithContext(ctx).Delete(&domain.FaceRecord{}, "id = ?", id).Error; err != nil {
		return false, &domain.ExternalServiceError{Provider: "face store", Err: err}
	}
	return true, nil
}

// SetImageURL attaches a snapshot URL to an existing record.
func (r *FaceRepository) SetImageURL(ctx context.Context, id, url string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.FaceRecord{}).
		Where("id = ?", id).
		Update("image_url", url)
	if res.Error != nil {
		return &domain.ExternalServiceError{Provider: "face store", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("face record %s not found", id)
	}
	return nil
}
