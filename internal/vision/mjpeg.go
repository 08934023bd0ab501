package vision

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// MJPEGSource grabs still frames from an MJPEG-over-HTTP camera stream
// (multipart/x-mixed-replace). One source owns one stream connection; Open and
// Close bracket a camera session.
type MJPEGSource struct {
	url    string
	client *http.Client

	// mu serializes stream reads and is held for a whole frame. The body
	// handle lives behind its own lock so Close can interrupt a blocked read.
	mu     sync.Mutex
	reader *multipart.Reader

	bodyMu sync.Mutex
	body   io.ReadCloser
}

// NewMJPEGSource creates a frame source for the given stream URL.
func NewMJPEGSource(url string) *MJPEGSource {
	return &MJPEGSource{
		url: url,
		// no client timeout: the stream body is read for the whole session
		client: &http.Client{},
	}
}

// Open connects to the stream. Returns a DeviceError when the camera endpoint
// is unreachable or answers with a non-success status.
func (s *MJPEGSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reader != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return &domain.DeviceError{Device: "camera", Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.DeviceError{Device: "camera", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return &domain.DeviceError{Device: "camera", Err: fmt.Errorf("stream status %d", resp.StatusCode)}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] == "" {
		resp.Body.Close()
		return &domain.DeviceError{Device: "camera", Err: fmt.Errorf("not an MJPEG stream: %q", mediaType)}
	}

	s.bodyMu.Lock()
	s.body = resp.Body
	s.bodyMu.Unlock()
	s.reader = multipart.NewReader(resp.Body, params["boundary"])
	return nil
}

// Grab reads the next frame from the stream. The multipart reader shares one
// buffered connection, so the lock is held until the frame is fully read;
// concurrent grabs are serialized, never interleaved.
func (s *MJPEGSource) Grab(ctx context.Context) (*domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reader == nil {
		return nil, &domain.DeviceError{Device: "camera", Err: fmt.Errorf("stream not open")}
	}

	part, err := s.reader.NextPart()
	if err != nil {
		return nil, &domain.DeviceError{Device: "camera", Err: err}
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, &domain.DeviceError{Device: "camera", Err: err}
	}

	contentType := part.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return &domain.Frame{
		Data:        data,
		ContentType: contentType,
		CapturedAt:  time.Now().UTC(),
	}, nil
}

// Close releases the stream connection. Idempotent. Closing the body first
// fails any read in flight, so a blocked Grab releases the read lock.
func (s *MJPEGSource) Close() error {
	s.bodyMu.Lock()
	body := s.body
	s.body = nil
	s.bodyMu.Unlock()

	if body == nil {
		return nil
	}
	err := body.Close()

	s.mu.Lock()
	s.reader = nil
	s.mu.Unlock()
	return err
}
