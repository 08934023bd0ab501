package domain

import "time"

// Box is an axis-aligned bounding box in frame pixel coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one face found in a frame by the external model: its bounding
// box, its embedding, and the model's confidence.
type Detection struct {
	Box        Box        `json:"box"`
	Descriptor Descriptor `json:"descriptor"`
	Confidence float64    `json:"confidence"`
}

// Annotation is a detection after identity matching. Label is the matched
// record's name or the matcher's unknown sentinel; Distance is the Euclidean
// distance to the closest reference descriptor. Matched is false when no
// matcher cache was loaded, in which case only the box is meaningful.
type Annotation struct {
	Box      Box     `json:"box"`
	Label    string  `json:"label,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	Matched  bool    `json:"matched"`
}

// Frame is a single still image captured from a frame source.
type Frame struct {
	Data        []byte
	ContentType string
	CapturedAt  time.Time
}
