package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/paihq/pai/internal/config"
	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/pkg/finance"
	"github.com/paihq/pai/pkg/identity"
	"github.com/paihq/pai/pkg/localstore"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/paihq/pai/pkg/store"
	"github.com/paihq/pai/pkg/task"
	"github.com/paihq/pai/pkg/user"
	"github.com/paihq/pai/pkg/workspace"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: pai [-config=<path>] <kind> <command> [<args>]

Kinds
   expenses, incomes, investments, tasks, notes, calendar, contacts, timeclock

Commands
   <kind> list                 Print the records of kind as JSON
   <kind> delete <id>          Delete a record
   expenses add <date> <amount> <description> [<frequency> <occurrences>]
   incomes add ...             Same arguments as expenses
   investments add ...         Same arguments as expenses
   tasks add <title> [<due date>]
   tasks done <id>
   status                      Show the state of every store

Without PAI_TOKEN records are kept on this device only.
`

var configFlag = flag.String("config", "./config/application.yaml", "configuration file")

var errUsage = errors.New("invalid arguments")

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if err := config.ConfigureLogging(log.WarnLevel); err != nil {
		log.Fatal(err)
	}
	if err := execute(flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		log.Error(err)
		os.Exit(1)
	}
}

func execute(args []string) error {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	storage, err := localstore.OpenSQLite(cfg.Client.LocalStorePath, cfg.Client.LocalStoreQuota)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	defer storage.Close()

	bus := event_bus.NewEventBus()
	event_bus.SubscribeTyped[event_bus.Notice](bus, event_bus.NoticeRaised, func(e event_bus.EventT[event_bus.Notice]) error {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Data.Level, e.Data.Message)
		return nil
	})

	session := identity.NewGuestSession()
	if token := os.Getenv("PAI_TOKEN"); token != "" {
		session.LoginWithToken(userKey(token), token)
	}
	// The process exits right after the command, so nothing may wait on a debounce timer.
	ws := workspace.New(cfg.Client, session, storage, store.NewBusNotifier(bus), nil, store.WithSyncDelay(0))
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return run(ctx, ws, args, os.Stdout)
}

// userKey namespaces the local cache per token without storing the token itself.
func userKey(token string) string {
	if key := os.Getenv("PAI_USER"); key != "" {
		return key
	}
	return user.HashToken(token)[:16]
}

func run(ctx context.Context, ws *workspace.Workspace, args []string, out io.Writer) error {
	if len(args) == 1 && args[0] == "status" {
		ws.Load(ctx)
		states := ws.States()
		for _, kind := range slices.Sorted(maps.Keys(states)) {
			fmt.Fprintf(out, "%s\t%s\n", kind, states[kind])
		}
		return nil
	}
	if len(args) < 2 {
		return errUsage
	}
	kind, cmd, rest := record.Kind(args[0]), args[1], args[2:]

	switch cmd {
	case "list":
		ws.Load(ctx)
		data, err := ws.Records(kind)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		outcome, err := ws.Delete(ctx, kind, rest[0])
		return report(out, outcome, err)
	case "add":
		switch kind {
		case record.Expenses:
			return addEntry(ctx, ws.Expenses, rest, out, func(e finance.Entry, spec *recurrence.Spec) finance.Expense {
				x := finance.Expense{Entry: e}
				x.Repeat = spec
				return x
			})
		case record.Incomes:
			return addEntry(ctx, ws.Incomes, rest, out, func(e finance.Entry, spec *recurrence.Spec) finance.Income {
				x := finance.Income{Entry: e}
				x.Repeat = spec
				return x
			})
		case record.Investments:
			return addEntry(ctx, ws.Investments, rest, out, func(e finance.Entry, spec *recurrence.Spec) finance.Investment {
				x := finance.Investment{Entry: e}
				x.Repeat = spec
				return x
			})
		case record.Tasks:
			return addTask(ctx, ws, rest, out)
		}
	case "done":
		if kind == record.Tasks && len(rest) == 1 {
			outcome, err := ws.Tasks.Update(ctx, rest[0], func(t task.Task) task.Task {
				t.Completed = true
				return t
			})
			return report(out, outcome, err)
		}
	}
	return errUsage
}

func addEntry[T record.Record[T]](ctx context.Context, s *store.Store[T], args []string, out io.Writer, build func(finance.Entry, *recurrence.Spec) T) error {
	if len(args) != 3 && len(args) != 5 {
		return errUsage
	}
	date, err := recurrence.ParseDate(args[0])
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	var spec *recurrence.Spec
	if len(args) == 5 {
		frequency, err := recurrence.ParseFrequency(args[3])
		if err != nil {
			return err
		}
		occurrences, err := strconv.Atoi(args[4])
		if err != nil {
			return fmt.Errorf("invalid occurrences %q: %w", args[4], err)
		}
		spec = &recurrence.Spec{Frequency: frequency, Occurrences: occurrences}
	}
	entry := finance.Entry{Date: date, Amount: amount, Description: args[2]}
	outcome, err := s.Create(ctx, build(entry, spec))
	return report(out, outcome, err)
}

func addTask(ctx context.Context, ws *workspace.Workspace, args []string, out io.Writer) error {
	if len(args) != 1 && len(args) != 2 {
		return errUsage
	}
	t := task.Task{Title: args[0]}
	if len(args) == 2 {
		due, err := recurrence.ParseDate(args[1])
		if err != nil {
			return err
		}
		t.DueDate = due
	}
	outcome, err := ws.Tasks.Create(ctx, t)
	return report(out, outcome, err)
}

func report(out io.Writer, outcome store.Outcome, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(out, outcome)
	if outcome == store.Failed {
		return errors.New("operation failed")
	}
	return nil
}
