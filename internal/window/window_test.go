package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinuteBucket(t *testing.T) {
	at := time.Date(2025, 3, 9, 23, 59, 7, 123, time.UTC)
	assert.Equal(t, "202503092359", MinuteBucket(at))
}

func TestDayBucket(t *testing.T) {
	at := time.Date(2025, 3, 9, 23, 59, 7, 0, time.UTC)
	assert.Equal(t, "20250309", DayBucket(at))
}

func TestBucketsIgnoreLocalZone(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2025, 3, 9, 20, 30, 0, 0, zone) // 2025-03-10 01:30 UTC

	assert.Equal(t, "202503100130", MinuteBucket(local))
	assert.Equal(t, "20250310", DayBucket(local))
}

func TestDistinctMinutesProduceDistinctBuckets(t *testing.T) {
	base := time.Date(2025, 3, 9, 23, 59, 30, 0, time.UTC)
	assert.NotEqual(t, MinuteBucket(base), MinuteBucket(base.Add(time.Minute)))
	assert.NotEqual(t, DayBucket(base), DayBucket(base.Add(time.Minute))) // crosses midnight
}
