package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
)

type recordingSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSynth) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *recordingSynth) said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func TestNotifier_NotifySpeaksAndExpires(t *testing.T) {
	synth := &recordingSynth{}
	n := NewNotifier(synth, 30*time.Millisecond, logger.GetDefault())
	defer n.Close()

	entry := n.Notify(context.Background(), "obstacle ahead", domain.SeverityWarning)
	require.NotEmpty(t, entry.ID)
	require.Len(t, n.Pending(), 1)

	require.Eventually(t, func() bool {
		return len(synth.said()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "obstacle ahead", synth.said()[0])

	// entry expires on its own after the TTL
	require.Eventually(t, func() bool {
		return len(n.Pending()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_EntriesExpireIndependently(t *testing.T) {
	n := NewNotifier(nil, time.Minute, logger.GetDefault())
	defer n.Close()

	a := n.Notify(context.Background(), "first", domain.SeverityInfo)
	b := n.Notify(context.Background(), "second", domain.SeverityInfo)
	c := n.Notify(context.Background(), "third", domain.SeverityError)

	require.True(t, n.Dismiss(b.ID))

	pending := n.Pending()
	require.Len(t, pending, 2)
	require.Equal(t, a.ID, pending[0].ID)
	require.Equal(t, c.ID, pending[1].ID)
}

func TestNotifier_DismissUnknownID(t *testing.T) {
	n := NewNotifier(nil, time.Minute, logger.GetDefault())
	defer n.Close()

	require.False(t, n.Dismiss("missing"))
}

func TestNotifier_DismissIsIdempotent(t *testing.T) {
	n := NewNotifier(nil, time.Minute, logger.GetDefault())
	defer n.Close()

	entry := n.Notify(context.Background(), "hello", domain.SeverityInfo)
	require.True(t, n.Dismiss(entry.ID))
	require.False(t, n.Dismiss(entry.ID))
}
