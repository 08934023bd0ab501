package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DefaultUserID is the tenant used when a request carries no user ID.
const DefaultUserID = "default"

// Descriptor is a fixed-length face embedding vector produced by an external
// model. All descriptors compared against each other share one dimensionality.
// It is stored as a JSON array in a text column so the same model works on
// both the postgres and sqlite drivers.
type Descriptor []float64

// Value implements driver.Valuer for database serialization.
func (d Descriptor) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (d *Descriptor) Scan(value interface{}) error {
	if value == nil {
		*d = Descriptor{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan Descriptor")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, d)
}

// FaceRecord is one registered face identity. Records are append-only: they
// are created at registration and removed by explicit deletion, never updated
// in place.
type FaceRecord struct {
	ID         string     `gorm:"type:text;primaryKey" json:"id"`
	UserID     string     `gorm:"type:text;not null;index:idx_faces_user" json:"userId"`
	Name       string     `gorm:"type:text;not null" json:"name"`
	Descriptor Descriptor `gorm:"type:text" json:"descriptor,omitempty"`
	ImageURL   string     `gorm:"type:text" json:"imageUrl,omitempty"`
	CreatedAt  time.Time  `json:"timestamp"`
}

// TableName returns the database table name for FaceRecord.
func (FaceRecord) TableName() string {
	return "faces"
}

// Meta strips the descriptor payload for listing endpoints.
func (r FaceRecord) Meta() FaceMeta {
	return FaceMeta{
		ID:        r.ID,
		Name:      r.Name,
		ImageURL:  r.ImageURL,
		Timestamp: r.CreatedAt,
	}
}

// FaceMeta is a FaceRecord without its descriptor payload.
type FaceMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
