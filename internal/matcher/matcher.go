// Package matcher implements nearest-labeled-descriptor face matching over an
// in-process reference set. A Matcher is immutable: when the underlying store
// changes, callers build a new one from the store's full descriptor list.
package matcher

import (
	"math"

	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// UnknownLabel is returned when no reference descriptor is within the
// threshold distance of the probe.
const UnknownLabel = "unknown"

// DefaultThreshold is the maximum Euclidean distance at which two descriptors
// are considered the same identity.
const DefaultThreshold = 0.6

// LabeledDescriptors groups one or more reference descriptors under a display
// label. A label may carry several descriptors when the same name was
// registered more than once.
type LabeledDescriptors struct {
	Label       string
	Descriptors []domain.Descriptor
}

// Matcher matches probe descriptors against a fixed reference set.
type Matcher struct {
	refs      []LabeledDescriptors
	threshold float64
}

// New builds a Matcher from an ordered reference set. Label order is
// significant: distance ties break to the earlier label. A non-positive
// threshold falls back to DefaultThreshold.
func New(refs []LabeledDescriptors, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{refs: refs, threshold: threshold}
}

// FromRecords builds a Matcher from raw store records, grouping descriptors by
// name in first-seen order.
func FromRecords(records []domain.FaceRecord, threshold float64) *Matcher {
	var refs []LabeledDescriptors
	index := make(map[string]int)
	for _, rec := range records {
		if len(rec.Descriptor) == 0 {
			continue
		}
		i, ok := index[rec.Name]
		if !ok {
			i = len(refs)
			index[rec.Name] = i
			refs = append(refs, LabeledDescriptors{Label: rec.Name})
		}
		refs[i].Descriptors = append(refs[i].Descriptors, rec.Descriptor)
	}
	return New(refs, threshold)
}

// Empty reports whether the matcher has no reference descriptors.
func (m *Matcher) Empty() bool {
	for _, ref := range m.refs {
		if len(ref.Descriptors) > 0 {
			return false
		}
	}
	return true
}

// Threshold returns the configured distance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the label of the reference descriptor closest to probe and
// the Euclidean distance to it. When the minimum distance exceeds the
// threshold (or there are no usable references) the label is UnknownLabel;
// the distance is still the observed minimum.
func (m *Matcher) Match(probe domain.Descriptor) (string, float64) {
	best := math.Inf(1)
	label := UnknownLabel

	for _, ref := range m.refs {
		for _, desc := range ref.Descriptors {
			if len(desc) != len(probe) || len(probe) == 0 {
				continue
			}
			if d := floats.Distance(probe, desc, 2); d < best {
				best = d
				label = ref.Label
			}
		}
	}

	if best > m.threshold {
		return UnknownLabel, best
	}
	return label, best
}
