package domain

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteResult is a walking route with its derived safety score. It is built
// fresh per navigation request and never cached.
type RouteResult struct {
	DistanceText    string   `json:"distance"`
	DurationText    string   `json:"duration"`
	DurationSeconds int      `json:"durationSeconds"`
	SafetyScore     int      `json:"safetyScore"`
	Steps           []string `json:"steps"`
}
