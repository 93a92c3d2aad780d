package automation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/internal/utils"
	"github.com/paihq/pai/pkg/document"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/paihq/pai/pkg/timeclock"
	"github.com/paihq/pai/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{
	Id:       7,
	Username: "test-user-7",
	Settings: user.Settings{Timezone: "Asia/Tokyo"},
})

func setup(t *testing.T) document.Service {
	t.Helper()
	bus := event_bus.NewEventBus()
	documents := document.NewService(document.NewRepositoryStub(), document.DefaultRegistry(), bus)
	// 2024-04-30 20:00 UTC is already May 1st in Tokyo.
	clock := utils.NewFixedClock(time.Date(2024, 4, 30, 20, 0, 0, 0, time.UTC))
	NewPomodoroLogger(documents, bus, clock, 0)
	return documents
}

func createTask(t *testing.T, documents document.Service, payload string) string {
	t.Helper()
	doc, _, err := documents.Create(ctx, record.Tasks, []byte(payload), "")
	require.NoError(t, err)
	return doc.Id
}

func timeEntries(t *testing.T, documents document.Service) []timeclock.Entry {
	t.Helper()
	entries, err := document.Records[timeclock.Entry](ctx, documents, record.TimeEntries)
	require.NoError(t, err)
	return entries
}

func TestPomodoroLogger(t *testing.T) {
	t.Run("should log pomodoros when a task is completed", func(t *testing.T) {
		// given
		documents := setup(t)
		id := createTask(t, documents, `{"title":"write report","dueDate":"2024-04-12","pomodoros":3}`)

		// when
		_, err := documents.Update(ctx, record.Tasks, id, []byte(`{"completed":true}`))

		// then
		require.NoError(t, err)
		entries := timeEntries(t, documents)
		require.Len(t, entries, 1)
		assert.Equal(t, recurrence.NewDate(2024, 4, 12), entries[0].Date)
		assert.Equal(t, 75, entries[0].Minutes)
		assert.Equal(t, "write report", entries[0].Notes)
	})

	t.Run("should date undated tasks today in the user's time zone", func(t *testing.T) {
		documents := setup(t)
		id := createTask(t, documents, `{"title":"inbox zero","pomodoros":1}`)

		_, err := documents.Update(ctx, record.Tasks, id, []byte(`{"completed":true}`))

		require.NoError(t, err)
		entries := timeEntries(t, documents)
		require.Len(t, entries, 1)
		assert.Equal(t, recurrence.NewDate(2024, 5, 1), entries[0].Date)
		assert.Equal(t, DefaultPomodoroMinutes, entries[0].Minutes)
	})

	t.Run("should log once when completed again", func(t *testing.T) {
		documents := setup(t)
		id := createTask(t, documents, `{"title":"refactor","dueDate":"2024-04-12","pomodoros":2}`)

		for _, patch := range []string{`{"completed":true}`, `{"completed":false}`, `{"completed":true}`} {
			_, err := documents.Update(ctx, record.Tasks, id, []byte(patch))
			require.NoError(t, err)
		}

		assert.Len(t, timeEntries(t, documents), 1)
	})

	t.Run("should ignore tasks without pomodoros and other changes", func(t *testing.T) {
		documents := setup(t)
		plain := createTask(t, documents, `{"title":"call mom","dueDate":"2024-04-12"}`)
		focused := createTask(t, documents, `{"title":"study","dueDate":"2024-04-12","pomodoros":4}`)

		_, err := documents.Update(ctx, record.Tasks, plain, []byte(`{"completed":true}`))
		require.NoError(t, err)
		_, err = documents.Update(ctx, record.Tasks, focused, []byte(`{"title":"study go"}`))
		require.NoError(t, err)

		assert.Empty(t, timeEntries(t, documents))
	})
}

func TestPomodoroLogger_HandleTaskUpdated(t *testing.T) {
	logger := &PomodoroLogger{clock: utils.NewFixedClock(time.Time{}), pomodoroMinutes: 25}

	_, err := logger.handleTaskUpdated(ctx, event_bus.RecordChanged{
		Kind:     string(record.Tasks),
		Id:       "t1",
		Previous: json.RawMessage(`not json`),
		Current:  json.RawMessage(`{}`),
	})

	assert.Error(t, err)
}
