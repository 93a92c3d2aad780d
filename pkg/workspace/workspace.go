// Package workspace bundles one record store per domain behind a shared client identity.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/paihq/pai/internal/config"
	"github.com/paihq/pai/pkg/calendar"
	"github.com/paihq/pai/pkg/contact"
	"github.com/paihq/pai/pkg/finance"
	"github.com/paihq/pai/pkg/identity"
	"github.com/paihq/pai/pkg/localstore"
	"github.com/paihq/pai/pkg/note"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/remote"
	"github.com/paihq/pai/pkg/store"
	"github.com/paihq/pai/pkg/task"
	"github.com/paihq/pai/pkg/timeclock"
	"golang.org/x/sync/errgroup"
)

// collection is the part of a store that does not depend on its record type.
type collection interface {
	Kind() record.Kind
	State() store.State
	Load(ctx context.Context)
	Refresh(ctx context.Context) error
	Reset()
	Close()
}

type Workspace struct {
	Session *identity.Session

	Expenses    *store.Store[finance.Expense]
	Incomes     *store.Store[finance.Income]
	Investments *store.Store[finance.Investment]
	Tasks       *store.Store[task.Task]
	Notes       *store.Store[note.Note]
	Calendar    *store.Store[calendar.Event]
	Contacts    *store.Store[contact.Contact]
	TimeClock   *store.Store[timeclock.Entry]

	collections []collection
	encoders    map[record.Kind]func() ([]byte, error)
	deleters    map[record.Kind]func(context.Context, string) (store.Outcome, error)
}

// New builds the stores. transport is the HTTP transport underneath the bearer token
// (http.DefaultTransport when nil).
func New(cfg config.Client, session *identity.Session, storage localstore.Storage, notifier store.Notifier, transport http.RoundTripper, opts ...store.Option) *Workspace {
	opts = append([]store.Option{store.WithSyncDelay(cfg.SyncDelay)}, opts...)
	w := &Workspace{
		Session:  session,
		encoders: map[record.Kind]func() ([]byte, error){},
		deleters: map[record.Kind]func(context.Context, string) (store.Outcome, error){},
	}

	w.Expenses = register[finance.Expense](w, record.Expenses, cfg, session, storage, notifier, transport, opts)
	w.Incomes = register[finance.Income](w, record.Incomes, cfg, session, storage, notifier, transport, opts)
	w.Investments = register[finance.Investment](w, record.Investments, cfg, session, storage, notifier, transport, opts)
	w.Tasks = register[task.Task](w, record.Tasks, cfg, session, storage, notifier, transport, opts)
	w.Notes = register[note.Note](w, record.Notes, cfg, session, storage, notifier, transport, opts)
	w.Calendar = register[calendar.Event](w, record.CalendarEvents, cfg, session, storage, notifier, transport, opts)
	w.Contacts = register[contact.Contact](w, record.Contacts, cfg, session, storage, notifier, transport, opts)
	w.TimeClock = register[timeclock.Entry](w, record.TimeEntries, cfg, session, storage, notifier, transport, opts)
	return w
}

func register[T record.Record[T]](
	w *Workspace,
	kind record.Kind,
	cfg config.Client,
	session *identity.Session,
	storage localstore.Storage,
	notifier store.Notifier,
	transport http.RoundTripper,
	opts []store.Option,
) *store.Store[T] {
	client := remote.NewClient[T](cfg.BaseUrl, kind, session, transport)
	s := store.New[T](kind, session, client, storage, notifier, opts...)
	w.collections = append(w.collections, s)
	w.encoders[kind] = func() ([]byte, error) {
		return json.Marshal(s.Records())
	}
	w.deleters[kind] = s.Delete
	return s
}

// Login switches every store to the user's remote collection on its next operation.
func (w *Workspace) Login(userKey, apiToken string) {
	w.Session.LoginWithToken(userKey, apiToken)
}

func (w *Workspace) Logout() {
	w.Session.Logout()
}

// Load loads all stores concurrently.
func (w *Workspace) Load(ctx context.Context) {
	var wg sync.WaitGroup
	for _, c := range w.collections {
		wg.Go(func() { c.Load(ctx) })
	}
	wg.Wait()
}

// Refresh re-reads every authenticated store from the server and returns the first failure.
func (w *Workspace) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range w.collections {
		g.Go(func() error {
			if err := c.Refresh(ctx); err != nil {
				return fmt.Errorf("refresh %s: %w", c.Kind(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (w *Workspace) States() map[record.Kind]store.State {
	states := make(map[record.Kind]store.State, len(w.collections))
	for _, c := range w.collections {
		states[c.Kind()] = c.State()
	}
	return states
}

// Records returns the JSON array of the records of kind.
func (w *Workspace) Records(kind record.Kind) ([]byte, error) {
	encode, ok := w.encoders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return encode()
}

// Delete removes the record with id from the store of kind.
func (w *Workspace) Delete(ctx context.Context, kind record.Kind, id string) (store.Outcome, error) {
	remove, ok := w.deleters[kind]
	if !ok {
		return store.Failed, fmt.Errorf("unknown record kind %q", kind)
	}
	return remove(ctx, id)
}

func (w *Workspace) Reset() {
	for _, c := range w.collections {
		c.Reset()
	}
}

func (w *Workspace) Close() {
	for _, c := range w.collections {
		c.Close()
	}
}
