package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
	"github.com/vidhyasrikachapalayam/visionassist/internal/matcher"
	"github.com/vidhyasrikachapalayam/visionassist/internal/repository"
)

type fakeSource struct {
	mu        sync.Mutex
	openErr   error
	openDelay time.Duration
	grabErr   error
	frame     *domain.Frame
	opens     int
	closes    int
}

func (s *fakeSource) Open(ctx context.Context) error {
	s.mu.Lock()
	s.opens++
	delay, err := s.openDelay, s.openErr
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (s *fakeSource) Grab(ctx context.Context) (*domain.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grabErr != nil {
		return nil, s.grabErr
	}
	if s.frame != nil {
		return s.frame, nil
	}
	return &domain.Frame{Data: []byte("jpeg"), ContentType: "image/jpeg"}, nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func (s *fakeSource) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type fakeEmbedder struct {
	mu         sync.Mutex
	detections []domain.Detection
	detectErr  error
	single     *domain.Detection

	block       chan struct{} // DetectAll waits on this when non-nil
	singleBlock chan struct{} // DetectSingle waits on this when non-nil
	calls       atomic.Int32
}

func (e *fakeEmbedder) DetectAll(ctx context.Context, frame *domain.Frame) ([]domain.Detection, error) {
	e.calls.Add(1)
	e.mu.Lock()
	block := e.block
	dets, err := e.detections, e.detectErr
	e.mu.Unlock()
	if block != nil {
		<-block
	}
	return dets, err
}

func (e *fakeEmbedder) DetectSingle(ctx context.Context, frame *domain.Frame) (*domain.Detection, error) {
	e.mu.Lock()
	block := e.singleBlock
	single := e.single
	e.mu.Unlock()
	if block != nil {
		<-block
	}
	if single == nil {
		return nil, domain.ErrNoFaceDetected
	}
	return single, nil
}

// flakyStore lets tests fail cache rebuild reads on demand.
type flakyStore struct {
	repository.FaceStore
	failList atomic.Bool
}

func (s *flakyStore) ListWithDescriptors(ctx context.Context, userID string) ([]domain.FaceRecord, error) {
	if s.failList.Load() {
		return nil, errors.New("store unreachable")
	}
	return s.FaceStore.ListWithDescriptors(ctx, userID)
}

func newTestController(t *testing.T, source *fakeSource, embedder *fakeEmbedder, store repository.FaceStore) *Controller {
	t.Helper()
	if store == nil {
		store = repository.NewMemoryFaceRepository(3)
	}
	return NewController(source, embedder, store, nil, nil, logger.GetDefault(), &Config{
		MatchThreshold: 0.6,
		DetectInterval: 2 * time.Millisecond,
		DropBusyTicks:  true,
	})
}

func TestController_StartCameraDeviceError(t *testing.T) {
	source := &fakeSource{openErr: &domain.DeviceError{Device: "camera", Err: errors.New("denied")}}
	c := newTestController(t, source, &fakeEmbedder{}, nil)

	err := c.StartCamera(context.Background())
	var deviceErr *domain.DeviceError
	require.ErrorAs(t, err, &deviceErr)
	require.Equal(t, StateIdle, c.State())
}

func TestController_RegisterValidation(t *testing.T) {
	c := newTestController(t, &fakeSource{}, &fakeEmbedder{}, nil)
	ctx := context.Background()

	_, err := c.Register(ctx, "")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// camera not active
	_, err = c.Register(ctx, "Alice")
	require.ErrorAs(t, err, &validationErr)
}

func TestController_RegisterNoFaceDetected(t *testing.T) {
	c := newTestController(t, &fakeSource{}, &fakeEmbedder{}, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))

	_, err := c.Register(ctx, "Alice")
	require.ErrorIs(t, err, domain.ErrNoFaceDetected)
}

func TestController_RegisterThenMatch(t *testing.T) {
	embedder := &fakeEmbedder{single: &domain.Detection{Descriptor: domain.Descriptor{0, 0, 0}}}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))

	record, err := c.Register(ctx, "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Equal(t, StateCameraActive, c.State())

	// the just-registered face is matchable immediately
	label, distance := c.Matcher().Match(domain.Descriptor{0.01, 0, 0})
	require.Equal(t, "Alice", label)
	require.InDelta(t, 0.01, distance, 1e-9)
}

func TestController_RemoveThenNeverMatch(t *testing.T) {
	embedder := &fakeEmbedder{single: &domain.Detection{Descriptor: domain.Descriptor{0, 0, 0}}}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))

	record, err := c.Register(ctx, "Alice")
	require.NoError(t, err)
	require.NoError(t, c.Remove(ctx, record.ID))

	// probing with the deleted descriptor itself must not resurrect the label
	label, _ := c.Matcher().Match(domain.Descriptor{0, 0, 0})
	require.Equal(t, matcher.UnknownLabel, label)
}

func TestController_RebuildFailureRetainsPreviousCache(t *testing.T) {
	embedder := &fakeEmbedder{single: &domain.Detection{Descriptor: domain.Descriptor{0, 0, 0}}}
	store := &flakyStore{FaceStore: repository.NewMemoryFaceRepository(3)}
	c := newTestController(t, &fakeSource{}, embedder, store)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))

	_, err := c.Register(ctx, "Alice")
	require.NoError(t, err)

	store.failList.Store(true)
	embedder.mu.Lock()
	embedder.single = &domain.Detection{Descriptor: domain.Descriptor{1, 1, 1}}
	embedder.mu.Unlock()

	record, err := c.Register(ctx, "Bob")
	require.Error(t, err)
	require.NotNil(t, record) // the write itself committed

	// previous cache stays in place: Alice matches, Bob does not
	label, _ := c.Matcher().Match(domain.Descriptor{0, 0, 0})
	require.Equal(t, "Alice", label)
	label, _ = c.Matcher().Match(domain.Descriptor{1, 1, 1})
	require.Equal(t, matcher.UnknownLabel, label)
}

func TestController_DetectionLoopPublishesAnnotations(t *testing.T) {
	embedder := &fakeEmbedder{single: &domain.Detection{Descriptor: domain.Descriptor{0, 0, 0}}}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))
	defer c.StopCamera(ctx)

	_, err := c.Register(ctx, "Alice")
	require.NoError(t, err)

	embedder.mu.Lock()
	embedder.detections = []domain.Detection{{
		Box:        domain.Box{X: 10, Y: 20, Width: 100, Height: 100},
		Descriptor: domain.Descriptor{0.01, 0, 0},
	}}
	embedder.mu.Unlock()

	require.NoError(t, c.StartDetection(ctx))
	require.Equal(t, StateDetecting, c.State())

	require.Eventually(t, func() bool {
		annotations := c.Annotations()
		return len(annotations) == 1 && annotations[0].Label == "Alice" && annotations[0].Matched
	}, time.Second, 5*time.Millisecond)

	c.StopDetection()
	require.Equal(t, StateCameraActive, c.State())
}

func TestController_DetectionWithoutCacheAnnotatesRawBoxes(t *testing.T) {
	embedder := &fakeEmbedder{}
	embedder.detections = []domain.Detection{{
		Box:        domain.Box{Width: 50, Height: 50},
		Descriptor: domain.Descriptor{0, 0, 0},
	}}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))
	defer c.StopCamera(ctx)

	require.NoError(t, c.StartDetection(ctx))

	// nothing registered: boxes come through unlabeled
	require.Eventually(t, func() bool {
		annotations := c.Annotations()
		return len(annotations) == 1 && !annotations[0].Matched && annotations[0].Label == ""
	}, time.Second, 5*time.Millisecond)
}

func TestController_BusyTicksAreDropped(t *testing.T) {
	embedder := &fakeEmbedder{block: make(chan struct{})}
	embedder.detections = []domain.Detection{{Descriptor: domain.Descriptor{0, 0, 0}}}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))
	require.NoError(t, c.StartDetection(ctx))

	// with a 2ms interval many ticks fire, but only one inference may run
	require.Eventually(t, func() bool {
		return embedder.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, embedder.calls.Load())

	close(embedder.block)
	c.StopCamera(ctx)
}

func TestController_StaleResultDiscardedAfterTeardown(t *testing.T) {
	embedder := &fakeEmbedder{block: make(chan struct{})}
	embedder.detections = []domain.Detection{{Descriptor: domain.Descriptor{0, 0, 0}}}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))
	require.NoError(t, c.StartDetection(ctx))

	// wait until one inference is in flight, then tear the session down
	require.Eventually(t, func() bool {
		return embedder.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)
	c.StopCamera(ctx)
	require.Equal(t, StateIdle, c.State())

	// the in-flight call resolves after cancellation; its result is dropped
	close(embedder.block)
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, c.Annotations())
}

func TestController_DetectionErrorsSkipTick(t *testing.T) {
	embedder := &fakeEmbedder{detectErr: &domain.ModelInferenceError{Model: "face-embedding", Err: errors.New("boom")}}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))
	defer c.StopCamera(ctx)

	require.NoError(t, c.StartDetection(ctx))

	// the loop survives failing ticks and keeps sampling
	require.Eventually(t, func() bool {
		return embedder.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, StateDetecting, c.State())
}

func TestController_StopCameraIdempotent(t *testing.T) {
	source := &fakeSource{}
	c := newTestController(t, source, &fakeEmbedder{}, nil)
	ctx := context.Background()

	c.StopCamera(ctx) // idle stop is a no-op
	require.Equal(t, 0, source.closeCount())

	require.NoError(t, c.StartCamera(ctx))
	c.StopCamera(ctx)
	c.StopCamera(ctx)
	require.Equal(t, 1, source.closeCount())
	require.Equal(t, StateIdle, c.State())
}

func TestController_StopDetectionDuringRegister(t *testing.T) {
	embedder := &fakeEmbedder{
		single:      &domain.Detection{Descriptor: domain.Descriptor{0, 0, 0}},
		singleBlock: make(chan struct{}),
	}
	c := newTestController(t, &fakeSource{}, embedder, nil)
	ctx := context.Background()
	require.NoError(t, c.StartCamera(ctx))
	require.NoError(t, c.StartDetection(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := c.Register(ctx, "Alice")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateRegistering
	}, time.Second, time.Millisecond)

	// stop the loop while the registration capture is still in flight
	c.StopDetection()
	close(embedder.singleBlock)
	require.NoError(t, <-done)

	// the loop is gone, so the controller must not report it as running
	require.Equal(t, StateCameraActive, c.State())

	// restarting detection spins up a fresh loop rather than no-opping
	before := embedder.calls.Load()
	require.NoError(t, c.StartDetection(ctx))
	require.Eventually(t, func() bool {
		return embedder.calls.Load() > before
	}, time.Second, 5*time.Millisecond)
	c.StopCamera(ctx)
}

func TestController_ConcurrentStartCameraOpensOnce(t *testing.T) {
	source := &fakeSource{openDelay: 20 * time.Millisecond}
	c := newTestController(t, source, &fakeEmbedder{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.StartCamera(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, source.openCount())
	require.Equal(t, StateCameraActive, c.State())
	c.StopCamera(ctx)
}

func TestController_StartDetectionRequiresCamera(t *testing.T) {
	c := newTestController(t, &fakeSource{}, &fakeEmbedder{}, nil)

	err := c.StartDetection(context.Background())
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}
