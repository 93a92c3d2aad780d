package calendar

import (
	"testing"
	"time"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/stretchr/testify/assert"
)

func TestEvent_Validate(t *testing.T) {
	day := recurrence.NewDate(2025, time.October, 3)
	testCases := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{name: "all day", event: Event{Title: "Holiday", Date: day}},
		{name: "timed", event: Event{Title: "Dentist", Date: day, StartTime: "09:30", EndTime: "10:15"}},
		{name: "end without start", event: Event{Title: "x", Date: day, EndTime: "10:00"}, wantErr: true},
		{name: "end before start", event: Event{Title: "x", Date: day, StartTime: "11:00", EndTime: "10:00"}, wantErr: true},
		{name: "malformed time", event: Event{Title: "x", Date: day, StartTime: "9"}, wantErr: true},
		{name: "missing title", event: Event{Date: day}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, record.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvent_Span(t *testing.T) {
	day := recurrence.NewDate(2025, time.October, 3)

	start, end := Event{Title: "Holiday", Date: day}.Span(time.UTC)
	assert.Equal(t, time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC), end)

	start, end = Event{Title: "Call", Date: day, StartTime: "14:00"}.Span(time.UTC)
	assert.Equal(t, time.Date(2025, 10, 3, 14, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Hour, end.Sub(start))
}
