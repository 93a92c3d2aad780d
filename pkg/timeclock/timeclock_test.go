package timeclock

import (
	"testing"
	"time"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/stretchr/testify/assert"
)

var day = recurrence.NewDate(2024, time.March, 4)

func TestEntry_Duration(t *testing.T) {
	assert.Equal(t, 90*time.Minute, Entry{Date: day, ClockIn: "09:00", ClockOut: "10:30"}.Duration())
	assert.Equal(t, 25*time.Minute, Entry{Date: day, Minutes: 25}.Duration())
	assert.Equal(t, time.Duration(0), Entry{Date: day, ClockIn: "11:00", ClockOut: "10:00"}.Duration())
}

func TestEntry_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{name: "minutes only", entry: Entry{Date: day, Minutes: 50}},
		{name: "clock range", entry: Entry{Date: day, ClockIn: "08:15", ClockOut: "12:00"}},
		{name: "no duration", entry: Entry{Date: day}, wantErr: true},
		{name: "bad clock", entry: Entry{Date: day, ClockIn: "8am", ClockOut: "12:00"}, wantErr: true},
		{name: "reversed range", entry: Entry{Date: day, ClockIn: "12:00", ClockOut: "08:00"}, wantErr: true},
		{name: "missing date", entry: Entry{Minutes: 10}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.entry.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, record.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
