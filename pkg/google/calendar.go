package google

import (
	"context"
	"fmt"
	"time"

	"github.com/paihq/pai/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

const recordIdProperty = "paiRecordId"

type CalendarItem struct {
	ID      string
	Summary string
}

type CalendarClient interface {
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
	InsertEvent(ctx context.Context, calendarId string, event *gcal.Event) (string, error)
	UpdateEvent(ctx context.Context, calendarId, eventId string, event *gcal.Event) error
	DeleteEvent(ctx context.Context, calendarId, eventId string) error
}

type calendarClient struct {
	service *gcal.Service
}

func (c *calendarClient) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	calendars, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
	}
	items := make([]CalendarItem, 0, len(calendars.Items))
	for _, cal := range calendars.Items {
		items = append(items, CalendarItem{ID: cal.Id, Summary: cal.Summary})
	}
	return items, nil
}

func (c *calendarClient) InsertEvent(ctx context.Context, calendarId string, event *gcal.Event) (string, error) {
	result, err := c.service.Events.Insert(calendarId, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to insert event in Google Calendar: %w", err)
	}
	return result.Id, nil
}

func (c *calendarClient) UpdateEvent(ctx context.Context, calendarId, eventId string, event *gcal.Event) error {
	if _, err := c.service.Events.Update(calendarId, eventId, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to update event in Google Calendar: %w", err)
	}
	return nil
}

func (c *calendarClient) DeleteEvent(ctx context.Context, calendarId, eventId string) error {
	if err := c.service.Events.Delete(calendarId, eventId).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete event from Google Calendar: %w", err)
	}
	return nil
}

// toGoogleEvent maps a calendar record. All-day records use dates, the others
// instants in loc.
func toGoogleEvent(event calendar.Event, loc *time.Location) *gcal.Event {
	result := &gcal.Event{
		Summary:     event.Title,
		Location:    event.Location,
		Description: event.Description,
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{recordIdProperty: event.Id},
		},
	}
	start, end := event.Span(loc)
	if event.AllDay() {
		result.Start = &gcal.EventDateTime{Date: start.Format(time.DateOnly)}
		result.End = &gcal.EventDateTime{Date: end.Format(time.DateOnly)}
	} else {
		result.Start = &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()}
		result.End = &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: loc.String()}
	}
	log.Tracef("google event for record %s: %s - %s", event.Id, start, end)
	return result
}
