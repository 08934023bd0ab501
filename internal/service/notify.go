package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
	"github.com/vidhyasrikachapalayam/visionassist/internal/speech"
)

// DefaultNotificationTTL is how long an entry stays pending unless dismissed.
const DefaultNotificationTTL = 5 * time.Second

// Notifier fans system events out to the transient UI banner list and to
// speech output. Entries expire independently; removing one never affects
// another. Speech is fire-and-forget: the engine queues overlapping
// utterances, the notifier only logs delivery failures.
type Notifier struct {
	mu      sync.Mutex
	pending []domain.Notification
	timers  map[string]*time.Timer

	synth  speech.Synthesizer
	ttl    time.Duration
	logger *logger.Logger
}

// NewNotifier creates a notifier speaking through synth. A non-positive ttl
// falls back to DefaultNotificationTTL.
func NewNotifier(synth speech.Synthesizer, ttl time.Duration, log *logger.Logger) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	if synth == nil {
		synth = speech.Noop{}
	}
	return &Notifier{
		timers: make(map[string]*time.Timer),
		synth:  synth,
		ttl:    ttl,
		logger: log,
	}
}

// Notify appends a pending entry, speaks the message asynchronously, and
// schedules automatic removal after the TTL.
func (n *Notifier) Notify(ctx context.Context, message string, severity domain.Severity) domain.Notification {
	entry := domain.Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}

	n.mu.Lock()
	n.pending = append(n.pending, entry)
	n.timers[entry.ID] = time.AfterFunc(n.ttl, func() {
		n.Dismiss(entry.ID)
	})
	n.mu.Unlock()

	go func() {
		// detach from the request context; the utterance outlives the request
		if err := n.synth.Speak(context.Background(), message); err != nil {
			n.logger.WithError(err).Warn("speech output failed")
		}
	}()

	return entry
}

// Dismiss removes one pending entry. Reports whether it was still pending.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}
	for i, entry := range n.pending {
		if entry.ID == id {
			n.pending = append(n.pending[:i], n.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns a copy of the pending entries in arrival order.
func (n *Notifier) Pending() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.pending...)
}

// Close stops all expiry timers. Used on shutdown.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
	n.pending = nil
}
