package domain

import "time"

// Reading is a single sensor sample. Values holds only the metrics that were
// projected and present in the store; an absent key means the value is missing.
type Reading struct {
	DeviceID  string
	Timestamp time.Time
	Values    map[string]float64
}

// Value returns the metric value and whether it is present
func (r Reading) Value(key string) (float64, bool) {
	v, ok := r.Values[key]
	return v, ok
}
