package timeutil

import "time"

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// Seconds converts a duration to floating-point seconds, the unit used by
// the persisted cache file format.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// FromSeconds converts floating-point seconds back into a duration.
func FromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// UnixSeconds converts a timestamp to floating-point unix seconds.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromUnixSeconds converts floating-point unix seconds back into a timestamp.
func FromUnixSeconds(s float64) time.Time {
	return time.Unix(0, int64(s*float64(time.Second)))
}
