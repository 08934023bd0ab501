package matcher

import (
	"math"
	"testing"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

func TestMatcher_Match(t *testing.T) {
	refs := []LabeledDescriptors{
		{Label: "Alice", Descriptors: []domain.Descriptor{{0, 0, 0}}},
		{Label: "Bob", Descriptors: []domain.Descriptor{{1, 0, 0}, {1, 0.1, 0}}},
	}
	m := New(refs, 0.6)

	tests := []struct {
		name         string
		probe        domain.Descriptor
		wantLabel    string
		wantDistance float64
	}{
		{
			name:         "close to single reference",
			probe:        domain.Descriptor{0.01, 0, 0},
			wantLabel:    "Alice",
			wantDistance: 0.01,
		},
		{
			name:         "closest of several references",
			probe:        domain.Descriptor{1, 0.08, 0},
			wantLabel:    "Bob",
			wantDistance: 0.02,
		},
		{
			name:         "beyond threshold",
			probe:        domain.Descriptor{5, 5, 5},
			wantLabel:    UnknownLabel,
			wantDistance: math.Sqrt(16 + 25 + 25),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, distance := m.Match(tt.probe)
			if label != tt.wantLabel {
				t.Errorf("label = %q, want %q", label, tt.wantLabel)
			}
			if math.Abs(distance-tt.wantDistance) > 1e-9 {
				t.Errorf("distance = %v, want %v", distance, tt.wantDistance)
			}
		})
	}
}

func TestMatcher_EmptyReferenceSet(t *testing.T) {
	m := New(nil, 0.6)

	label, distance := m.Match(domain.Descriptor{0, 0, 0})
	if label != UnknownLabel {
		t.Errorf("label = %q, want %q", label, UnknownLabel)
	}
	if !math.IsInf(distance, 1) {
		t.Errorf("distance = %v, want +Inf", distance)
	}
	if !m.Empty() {
		t.Error("expected matcher to report empty")
	}
}

func TestMatcher_TieBreaksToEarlierLabel(t *testing.T) {
	// both references are equidistant from the probe
	refs := []LabeledDescriptors{
		{Label: "first", Descriptors: []domain.Descriptor{{0.1, 0}}},
		{Label: "second", Descriptors: []domain.Descriptor{{-0.1, 0}}},
	}
	m := New(refs, 0.6)

	label, _ := m.Match(domain.Descriptor{0, 0})
	if label != "first" {
		t.Errorf("label = %q, want %q", label, "first")
	}
}

func TestMatcher_SkipsMismatchedDimensions(t *testing.T) {
	refs := []LabeledDescriptors{
		{Label: "short", Descriptors: []domain.Descriptor{{0, 0}}},
		{Label: "long", Descriptors: []domain.Descriptor{{0, 0, 0}}},
	}
	m := New(refs, 0.6)

	label, _ := m.Match(domain.Descriptor{0.01, 0, 0})
	if label != "long" {
		t.Errorf("label = %q, want %q", label, "long")
	}
}

func TestMatcher_DefaultThreshold(t *testing.T) {
	m := New(nil, 0)
	if m.Threshold() != DefaultThreshold {
		t.Errorf("threshold = %v, want %v", m.Threshold(), DefaultThreshold)
	}
}

func TestFromRecords_GroupsByNameInFirstSeenOrder(t *testing.T) {
	records := []domain.FaceRecord{
		{Name: "Alice", Descriptor: domain.Descriptor{0, 0}},
		{Name: "Bob", Descriptor: domain.Descriptor{1, 1}},
		{Name: "Alice", Descriptor: domain.Descriptor{0, 0.1}},
		{Name: "Carol"}, // empty descriptor, skipped
	}
	m := FromRecords(records, 0.6)

	if len(m.refs) != 2 {
		t.Fatalf("got %d labels, want 2", len(m.refs))
	}
	if m.refs[0].Label != "Alice" || len(m.refs[0].Descriptors) != 2 {
		t.Errorf("first label = %q with %d descriptors, want Alice with 2",
			m.refs[0].Label, len(m.refs[0].Descriptors))
	}
	if m.refs[1].Label != "Bob" {
		t.Errorf("second label = %q, want Bob", m.refs[1].Label)
	}
}
