package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// snapshotMaxEdge bounds the longer edge of stored snapshots.
const snapshotMaxEdge = 320

// SnapshotService stores registration snapshots as downscaled JPEG
// thumbnails. Frames that cannot be decoded are stored as-is.
type SnapshotService struct {
	bucket ObjectStorage
}

// NewSnapshotService creates a snapshot service over bucket.
func NewSnapshotService(bucket ObjectStorage) *SnapshotService {
	return &SnapshotService{bucket: bucket}
}

// SaveSnapshot uploads the frame under key and returns its public URL.
func (s *SnapshotService) SaveSnapshot(ctx context.Context, key string, frame *domain.Frame) (string, error) {
	data := frame.Data
	contentType := frame.ContentType

	if thumb, err := thumbnail(frame.Data); err == nil {
		data = thumb
		contentType = "image/jpeg"
	}

	objectKey := fmt.Sprintf("faces/%s.jpg", key)
	if err := s.bucket.Upload(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", &domain.ExternalServiceError{Provider: "snapshot storage", Err: err}
	}
	return s.bucket.GetURL(objectKey), nil
}

// thumbnail decodes a frame and downscales it so the longer edge fits
// snapshotMaxEdge.
func thumbnail(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= snapshotMaxEdge && h <= snapshotMaxEdge {
		// already small enough, just re-encode
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, src, nil); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	scale := float64(snapshotMaxEdge) / float64(w)
	if h > w {
		scale = float64(snapshotMaxEdge) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
