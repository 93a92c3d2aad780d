package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/pkg/calendar"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
}

// ServiceImpl lists the user's calendars and mirrors calendar records into the
// configured Google calendar of users who connected their account.
type ServiceImpl struct {
	clients         ClientProvider
	repo            Repository
	defaultCalendar string
}

// NewService exports into defaultCalendar for users who did not pick a calendar.
func NewService(clients ClientProvider, repo Repository, eventBus *event_bus.EventBus, defaultCalendar string) *ServiceImpl {
	if defaultCalendar == "" {
		defaultCalendar = "primary"
	}
	s := &ServiceImpl{clients: clients, repo: repo, defaultCalendar: defaultCalendar}
	handlers := map[event_bus.EventType]func(context.Context, event_bus.RecordChanged) error{
		event_bus.RecordCreated: s.exportCreated,
		event_bus.RecordUpdated: s.exportUpdated,
		event_bus.RecordDeleted: s.exportDeleted,
	}
	for eventType, handle := range handlers {
		event_bus.SubscribeTyped[event_bus.RecordChanged](eventBus, eventType,
			func(e event_bus.EventT[event_bus.RecordChanged]) error {
				if e.Data.Kind != string(record.CalendarEvents) {
					return nil
				}
				err := handle(e.Context(), e.Data)
				if errors.Is(err, ErrUnauthenticated) {
					log.Tracef("user %d has no Google account, skipping export", e.Data.UserId)
					return nil
				}
				if err != nil {
					log.Errorf("failed to export %s of record %s: %v", eventType, e.Data.Id, err)
				}
				return err
			})
	}
	return s
}

func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	client, err := s.clients.Client(ctx, userId)
	if err != nil {
		return nil, err
	}
	return client.ListCalendars(ctx)
}

func (s *ServiceImpl) exportCreated(ctx context.Context, change event_bus.RecordChanged) error {
	event, err := decodeEvent(change.Current)
	if err != nil {
		return err
	}
	client, calendarId, current, err := s.target(ctx, change.UserId)
	if err != nil {
		return err
	}
	eventId, err := client.InsertEvent(ctx, calendarId, toGoogleEvent(event, current.Settings.Location()))
	if err != nil {
		return err
	}
	log.Debugf("exported record %s as Google event %s", change.Id, eventId)
	return s.repo.SaveExport(ctx, change.UserId, change.Id, eventId)
}

func (s *ServiceImpl) exportUpdated(ctx context.Context, change event_bus.RecordChanged) error {
	eventId, err := s.repo.FindExport(ctx, change.UserId, change.Id)
	if err != nil || eventId == "" {
		return err
	}
	event, err := decodeEvent(change.Current)
	if err != nil {
		return err
	}
	client, calendarId, current, err := s.target(ctx, change.UserId)
	if err != nil {
		return err
	}
	return client.UpdateEvent(ctx, calendarId, eventId, toGoogleEvent(event, current.Settings.Location()))
}

func (s *ServiceImpl) exportDeleted(ctx context.Context, change event_bus.RecordChanged) error {
	eventId, err := s.repo.FindExport(ctx, change.UserId, change.Id)
	if err != nil || eventId == "" {
		return err
	}
	client, calendarId, _, err := s.target(ctx, change.UserId)
	if err != nil {
		return err
	}
	if err := client.DeleteEvent(ctx, calendarId, eventId); err != nil {
		return err
	}
	return s.repo.DeleteExport(ctx, change.UserId, change.Id)
}

func (s *ServiceImpl) target(ctx context.Context, userId int) (CalendarClient, string, user.User, error) {
	current, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, "", user.User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	client, err := s.clients.Client(ctx, userId)
	if err != nil {
		return nil, "", user.User{}, err
	}
	calendarId := current.Settings.GoogleCalendar.CalendarId
	if calendarId == "" {
		calendarId = s.defaultCalendar
	}
	return client, calendarId, current, nil
}

func decodeEvent(data json.RawMessage) (calendar.Event, error) {
	var event calendar.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return calendar.Event{}, fmt.Errorf("decode calendar record: %w", err)
	}
	return event, nil
}
