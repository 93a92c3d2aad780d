package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
)

type Event struct {
	record.Meta
	Title       string          `json:"title"`
	Date        recurrence.Date `json:"date"`
	StartTime   string          `json:"startTime,omitempty"`
	EndTime     string          `json:"endTime,omitempty"`
	Location    string          `json:"location,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (e Event) AllDay() bool {
	return e.StartTime == ""
}

// Span returns the start and end instants of the event in loc. All-day events span the whole day.
func (e Event) Span(loc *time.Location) (time.Time, time.Time) {
	day := time.Date(e.Date.Year, e.Date.Month, e.Date.Day, 0, 0, 0, 0, loc)
	if e.AllDay() {
		return day, day.AddDate(0, 0, 1)
	}
	start := day.Add(clockOffset(e.StartTime))
	if e.EndTime == "" {
		return start, start.Add(time.Hour)
	}
	return start, day.Add(clockOffset(e.EndTime))
}

func (e Event) RecordDate() recurrence.Date { return e.Date }
func (e Event) SortKey() string             { return e.StartTime + e.Title }

func (e Event) WithId(id string) Event {
	e.Id = id
	return e
}

func (e Event) WithDate(d recurrence.Date) Event {
	e.Date = d
	return e
}

func (e Event) WithLink(l record.Link) Event {
	e.Meta = e.Meta.Linked(l)
	return e
}

func (e Event) Validate() error {
	if err := e.ValidateRecurrence(e.RecordDate()); err != nil {
		return err
	}
	if strings.TrimSpace(e.Title) == "" {
		return record.Invalid("title", "is required")
	}
	if err := record.ValidateDate("date", e.Date); err != nil {
		return err
	}
	if err := validateClock(e.StartTime); err != nil {
		return record.Invalid("startTime", err.Error())
	}
	if err := validateClock(e.EndTime); err != nil {
		return record.Invalid("endTime", err.Error())
	}
	if e.StartTime == "" && e.EndTime != "" {
		return record.Invalid("startTime", "is required when endTime is set")
	}
	if e.EndTime != "" && clockOffset(e.EndTime) <= clockOffset(e.StartTime) {
		return record.Invalid("endTime", "must be after startTime")
	}
	return nil
}

func validateClock(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("expected HH:MM, got %q", s)
	}
	return nil
}

func clockOffset(s string) time.Duration {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}
