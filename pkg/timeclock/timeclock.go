package timeclock

import (
	"fmt"
	"strings"
	"time"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
)

// Entry is one block of tracked work time.
type Entry struct {
	record.Meta
	Date     recurrence.Date `json:"date"`
	ClockIn  string          `json:"clockIn,omitempty"`
	ClockOut string          `json:"clockOut,omitempty"`
	Minutes  int             `json:"minutes"`
	Project  string          `json:"project,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

func (e Entry) RecordDate() recurrence.Date { return e.Date }
func (e Entry) SortKey() string             { return e.ClockIn + e.Project }

func (e Entry) WithId(id string) Entry {
	e.Id = id
	return e
}

func (e Entry) WithDate(d recurrence.Date) Entry {
	e.Date = d
	return e
}

func (e Entry) WithLink(l record.Link) Entry {
	e.Meta = e.Meta.Linked(l)
	return e
}

// Duration returns the worked time, derived from clock in/out when Minutes is not set.
func (e Entry) Duration() time.Duration {
	if e.Minutes > 0 {
		return time.Duration(e.Minutes) * time.Minute
	}
	in, errIn := parseClock(e.ClockIn)
	out, errOut := parseClock(e.ClockOut)
	if errIn != nil || errOut != nil || out < in {
		return 0
	}
	return out - in
}

func (e Entry) Validate() error {
	if err := e.ValidateRecurrence(e.RecordDate()); err != nil {
		return err
	}
	if err := record.ValidateDate("date", e.Date); err != nil {
		return err
	}
	if e.Minutes < 0 {
		return record.Invalid("minutes", "must not be negative")
	}
	in, err := parseClock(e.ClockIn)
	if err != nil {
		return record.Invalid("clockIn", err.Error())
	}
	out, err := parseClock(e.ClockOut)
	if err != nil {
		return record.Invalid("clockOut", err.Error())
	}
	if e.ClockIn != "" && e.ClockOut != "" && out < in {
		return record.Invalid("clockOut", "is before clockIn")
	}
	if e.Minutes == 0 && (e.ClockIn == "" || e.ClockOut == "") {
		return record.Invalid("minutes", "minutes or clockIn/clockOut are required")
	}
	return nil
}

// parseClock parses HH:MM into an offset from midnight. An empty string is zero.
func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
