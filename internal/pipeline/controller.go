// Package pipeline orchestrates camera capture, descriptor extraction,
// registration, and the continuous match-and-annotate loop.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
	"github.com/vidhyasrikachapalayam/visionassist/internal/matcher"
	"github.com/vidhyasrikachapalayam/visionassist/internal/repository"
)

// State is the controller's lifecycle phase.
type State string

const (
	StateIdle         State = "idle"
	StateCameraActive State = "camera_active"
	StateDetecting    State = "detecting"
	StateRegistering  State = "registration_pending"
)

// DefaultDetectInterval is the detection loop tick period.
const DefaultDetectInterval = 100 * time.Millisecond

// Config holds controller settings.
type Config struct {
	// UserID partitions the reference set loaded from the store.
	UserID string
	// MatchThreshold is the descriptor distance treated as the same identity.
	MatchThreshold float64
	// DetectInterval is the tick period; non-positive uses the default.
	DetectInterval time.Duration
	// DropBusyTicks drops ticks that fire while a prior inference is still in
	// flight instead of queueing them.
	DropBusyTicks bool
}

// Controller owns one camera session and its matcher cache. A controller is
// safe for concurrent use, but the camera handle and cache belong to this one
// instance; they are never shared across sessions.
type Controller struct {
	source    FrameSource
	embedder  FaceEmbedder
	store     repository.FaceStore
	snapshots SnapshotStore // optional
	announcer Announcer     // optional
	logger    *logger.Logger

	userID    string
	threshold float64
	interval  time.Duration
	dropBusy  bool

	mu          sync.Mutex
	state       State
	cache       *matcher.Matcher // nil until first successful load
	loopCancel  context.CancelFunc
	generation  uint64
	annotations []domain.Annotation

	inFlight atomic.Bool
}

// NewController wires a controller. snapshots and announcer may be nil.
func NewController(
	source FrameSource,
	embedder FaceEmbedder,
	store repository.FaceStore,
	snapshots SnapshotStore,
	announcer Announcer,
	log *logger.Logger,
	cfg *Config,
) *Controller {
	c := &Controller{
		source:    source,
		embedder:  embedder,
		store:     store,
		snapshots: snapshots,
		announcer: announcer,
		logger:    log,
		state:     StateIdle,
		threshold: matcher.DefaultThreshold,
		interval:  DefaultDetectInterval,
		dropBusy:  true,
	}
	if cfg != nil {
		c.userID = cfg.UserID
		if cfg.MatchThreshold > 0 {
			c.threshold = cfg.MatchThreshold
		}
		if cfg.DetectInterval > 0 {
			c.interval = cfg.DetectInterval
		}
		c.dropBusy = cfg.DropBusyTicks
	}
	return c
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartCamera acquires the capture handle and loads the matcher cache from
// the store. A cache load failure is logged, not fatal: detection then runs
// unlabeled until the next successful rebuild.
func (c *Controller) StartCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	// claim the session before the open so concurrent starts cannot double-open
	c.state = StateCameraActive
	c.mu.Unlock()

	if err := c.source.Open(ctx); err != nil {
		c.mu.Lock()
		if c.state == StateCameraActive {
			c.state = StateIdle
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.state == StateIdle {
		// torn down while the open was in flight
		c.mu.Unlock()
		c.source.Close()
		return nil
	}
	c.mu.Unlock()

	if err := c.RefreshCache(ctx); err != nil {
		c.logger.WithError(err).Warn("initial matcher cache load failed")
	}
	c.announce(ctx, "Camera started", domain.SeverityInfo)
	return nil
}

// StopCamera releases the capture handle and cancels any running detection
// loop. Safe to call from any state, repeatedly.
func (c *Controller) StopCamera(ctx context.Context) {
	c.mu.Lock()
	wasIdle := c.state == StateIdle
	if c.loopCancel != nil {
		c.loopCancel()
		c.loopCancel = nil
	}
	c.generation++
	c.state = StateIdle
	c.annotations = nil
	c.mu.Unlock()

	if wasIdle {
		return
	}
	if err := c.source.Close(); err != nil {
		c.logger.WithError(err).Warn("camera close failed")
	}
	c.announce(ctx, "Camera stopped", domain.SeverityInfo)
}

// StartDetection begins the periodic sampling loop.
func (c *Controller) StartDetection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateDetecting:
		return nil
	case StateCameraActive:
	default:
		return domain.NewValidationError("camera", "not active")
	}

	// The loop outlives the request that started it.
	loopCtx, cancel := context.WithCancel(logger.FromContext(ctx).WithContext(context.Background()))
	c.loopCancel = cancel
	c.state = StateDetecting
	go c.run(loopCtx, c.generation)
	return nil
}

// StopDetection cancels the periodic loop; the camera stays active. In-flight
// inference calls are not aborted, but their results are discarded.
func (c *Controller) StopDetection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loopCancel != nil {
		c.loopCancel()
		c.loopCancel = nil
	}
	c.generation++
	if c.state == StateDetecting {
		c.state = StateCameraActive
	}
}

// run is the detection loop. Each tick samples a frame, runs the model, and
// publishes annotations. Model errors skip the tick; the loop keeps going.
func (c *Controller) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.dropBusy {
				if !c.inFlight.CompareAndSwap(false, true) {
					logger.CtxDebug(ctx, "detection tick dropped, inference in flight")
					continue
				}
				go func() {
					defer c.inFlight.Store(false)
					c.tick(ctx, gen)
				}()
			} else {
				c.tick(ctx, gen)
			}
		}
	}
}

// tick runs one sample-detect-match cycle.
func (c *Controller) tick(ctx context.Context, gen uint64) {
	frame, err := c.source.Grab(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.CtxWarn(ctx, "frame grab failed: %v", err)
		}
		return
	}

	detections, err := c.embedder.DetectAll(ctx, frame)
	if err != nil {
		logger.CtxWarn(ctx, "detection tick skipped: %v", err)
		return
	}

	m := c.Matcher()
	annotations := make([]domain.Annotation, 0, len(detections))
	for _, det := range detections {
		a := domain.Annotation{Box: det.Box}
		if m != nil && !m.Empty() {
			a.Label, a.Distance = m.Match(det.Descriptor)
			a.Matched = true
		}
		annotations = append(annotations, a)
	}
	logger.With(nil).WithFaces(len(detections)).Debug(ctx, "detection tick complete")

	c.publish(ctx, gen, annotations)
}

// publish applies a tick's result unless the session was torn down while the
// inference was in flight.
func (c *Controller) publish(ctx context.Context, gen uint64, annotations []domain.Annotation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil || c.generation != gen {
		logger.CtxDebug(ctx, "stale tick result discarded")
		return
	}
	c.annotations = annotations
}

// Annotations returns the most recent published tick result.
func (c *Controller) Annotations() []domain.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Annotation(nil), c.annotations...)
}

// Register captures one fresh frame, extracts a single face, persists it
// under name, and synchronously rebuilds the matcher cache so the new face is
// matchable on the very next tick. On a cache rebuild failure the committed
// record is returned together with the error; the previous cache is retained.
func (c *Controller) Register(ctx context.Context, name string) (*domain.FaceRecord, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	c.mu.Lock()
	switch c.state {
	case StateCameraActive, StateDetecting:
	default:
		c.mu.Unlock()
		return nil, domain.NewValidationError("camera", "not active")
	}
	prev := c.state
	c.state = StateRegistering
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		// teardown may have raced the registration; only restore our own state
		if c.state == StateRegistering {
			if prev == StateDetecting && c.loopCancel == nil {
				// detection was stopped while the registration was in flight
				prev = StateCameraActive
			}
			c.state = prev
		}
		c.mu.Unlock()
	}()

	frame, err := c.source.Grab(ctx)
	if err != nil {
		return nil, err
	}
	detection, err := c.embedder.DetectSingle(ctx, frame)
	if err != nil {
		return nil, err
	}

	record, err := c.store.Register(ctx, name, detection.Descriptor, c.userID)
	if err != nil {
		return nil, err
	}

	if c.snapshots != nil {
		if url, err := c.snapshots.SaveSnapshot(ctx, record.ID, frame); err != nil {
			c.logger.WithError(err).Warn("snapshot upload failed")
		} else if err := c.store.SetImageURL(ctx, record.ID, url); err != nil {
			c.logger.WithError(err).Warn("snapshot url update failed")
		} else {
			record.ImageURL = url
		}
	}

	if err := c.RefreshCache(ctx); err != nil {
		return record, fmt.Errorf("registered but cache rebuild failed: %w", err)
	}

	c.announce(ctx, fmt.Sprintf("Registered %s", name), domain.SeverityInfo)
	return record, nil
}

// Remove deletes a record and rebuilds the matcher cache the same way.
func (c *Controller) Remove(ctx context.Context, id string) error {
	if _, err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	return c.RefreshCache(ctx)
}

// RefreshCache rebuilds the matcher cache wholesale from the store's full
// descriptor list. All-or-nothing: on a store read failure the previous cache
// stays in place.
func (c *Controller) RefreshCache(ctx context.Context) error {
	records, err := c.store.ListWithDescriptors(ctx, c.userID)
	if err != nil {
		return err
	}
	m := matcher.FromRecords(records, c.threshold)

	c.mu.Lock()
	c.cache = m
	c.mu.Unlock()

	c.logger.WithField(logger.FieldCount, len(records)).Debug("matcher cache rebuilt")
	return nil
}

// Matcher returns the current cache snapshot, or nil when no cache has been
// loaded yet.
func (c *Controller) Matcher() *matcher.Matcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache
}

func (c *Controller) announce(ctx context.Context, message string, severity domain.Severity) {
	if c.announcer != nil {
		c.announcer.Notify(ctx, message, severity)
	}
}
