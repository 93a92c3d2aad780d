package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToday_UsesLocation(t *testing.T) {
	clock := NewFixedClock(time.Date(2024, time.May, 31, 23, 30, 0, 0, time.UTC))
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	assert.Equal(t, "2024-05-31", Today(clock, nil).String())
	assert.Equal(t, "2024-06-01", Today(clock, tokyo).String())
}

func TestFixedClock_Advance(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFixedClock(start)

	clock.Advance(36 * time.Hour)

	assert.Equal(t, start.Add(36*time.Hour), clock.Now())
	assert.Equal(t, "2024-01-02", Today(clock, time.UTC).String())
}
