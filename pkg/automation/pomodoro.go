package automation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/internal/utils"
	"github.com/paihq/pai/pkg/document"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/paihq/pai/pkg/task"
	"github.com/paihq/pai/pkg/timeclock"
	"github.com/paihq/pai/pkg/user"
	log "github.com/sirupsen/logrus"
)

const DefaultPomodoroMinutes = 25

// PomodoroLogger books the focus time of a completed task on the time clock.
type PomodoroLogger struct {
	documents       document.Service
	clock           utils.Clock
	pomodoroMinutes int
}

func NewPomodoroLogger(documents document.Service, eventBus *event_bus.EventBus, clock utils.Clock, pomodoroMinutes int) *PomodoroLogger {
	if pomodoroMinutes <= 0 {
		pomodoroMinutes = DefaultPomodoroMinutes
	}
	logger := &PomodoroLogger{documents: documents, clock: clock, pomodoroMinutes: pomodoroMinutes}
	event_bus.SubscribeTyped[event_bus.RecordChanged](
		eventBus,
		event_bus.RecordUpdated,
		func(e event_bus.EventT[event_bus.RecordChanged]) error {
			if e.Data.Kind != string(record.Tasks) {
				return nil
			}
			log.Debugf("received task update: %s", e.Data.Id)
			if _, err := logger.handleTaskUpdated(e.Context(), e.Data); err != nil {
				log.Errorf("failed to log pomodoros of task %s: %v", e.Data.Id, err)
				return err
			}
			return nil
		},
	)
	return logger
}

// handleTaskUpdated creates a time clock entry when the task just became completed.
// It reports whether an entry was created.
func (p *PomodoroLogger) handleTaskUpdated(ctx context.Context, change event_bus.RecordChanged) (bool, error) {
	var previous, current task.Task
	if err := json.Unmarshal(change.Previous, &previous); err != nil {
		return false, fmt.Errorf("decode previous task: %w", err)
	}
	if err := json.Unmarshal(change.Current, &current); err != nil {
		return false, fmt.Errorf("decode current task: %w", err)
	}
	if previous.Completed || !current.Completed || current.Pomodoros == 0 {
		return false, nil
	}

	date := current.DueDate
	if date.IsZero() {
		date = p.today(ctx)
	}
	entry := timeclock.Entry{
		Date:    date,
		Minutes: current.Pomodoros * p.pomodoroMinutes,
		Project: "pomodoro",
		Notes:   current.Title,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	// One entry per task, even when it is completed again later.
	_, created, err := p.documents.Create(ctx, record.TimeEntries, payload, "pomodoro:"+change.Id)
	if err != nil {
		return false, err
	}
	if created {
		log.Infof("logged %d minutes for task %s", entry.Minutes, change.Id)
	}
	return created, nil
}

func (p *PomodoroLogger) today(ctx context.Context) recurrence.Date {
	return utils.Today(p.clock, user.CurrentLocation(ctx))
}
