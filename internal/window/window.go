// Package window derives calendar-aligned bucket keys from UTC time.
package window

import "time"

// Clock abstracts wall-clock time so tests can inject fixed or advancing
// clocks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

const (
	minuteLayout = "200601021504"
	dayLayout    = "20060102"
)

// MinuteBucket formats t truncated to the UTC minute, e.g. "202608311542".
func MinuteBucket(t time.Time) string {
	return t.UTC().Format(minuteLayout)
}

// DayBucket formats t truncated to the UTC day, e.g. "20260831".
func DayBucket(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
