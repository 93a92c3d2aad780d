package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishInSubscriptionOrder(t *testing.T) {
	// given
	bus := NewEventBus()
	var calls []int
	for i := range 5 {
		bus.Subscribe(RecordCreated, func(Event) error {
			calls = append(calls, i)
			return nil
		})
	}

	// when
	err := bus.Publish(NewEvent(context.Background(), RecordCreated, nil))

	// then
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, calls)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	unsubA := bus.Subscribe(RecordDeleted, func(Event) error { calls = append(calls, "a"); return nil })
	bus.Subscribe(RecordDeleted, func(Event) error { calls = append(calls, "b"); return nil })

	unsubA()
	unsubA()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), RecordDeleted, nil)))

	assert.Equal(t, []string{"b"}, calls)
}

func TestSubscribeTyped(t *testing.T) {
	t.Run("should deliver matching payloads with context", func(t *testing.T) {
		// given
		bus := NewEventBus()
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "request-1")
		var received []RecordChanged
		var fromCtx any
		SubscribeTyped[RecordChanged](bus, RecordUpdated, func(e EventT[RecordChanged]) error {
			received = append(received, e.Data)
			fromCtx = e.Context().Value(ctxKey{})
			return nil
		})

		// when
		require.NoError(t, bus.Publish(NewEvent(ctx, RecordUpdated, RecordChanged{UserId: 1, Kind: "tasks", Id: "t1"})))
		require.NoError(t, bus.Publish(NewEvent(ctx, RecordUpdated, "not a change")))
		require.NoError(t, bus.Publish(NewEvent(ctx, RecordUpdated, nil)))

		// then
		assert.Equal(t, []RecordChanged{{UserId: 1, Kind: "tasks", Id: "t1"}}, received)
		assert.Equal(t, "request-1", fromCtx)
	})
}

func TestEventBus_Errors(t *testing.T) {
	t.Run("should run all handlers and collect errors", func(t *testing.T) {
		bus := NewEventBus()
		failure := errors.New("boom")
		ran := 0
		bus.Subscribe(NoticeRaised, func(Event) error { ran++; return failure })
		bus.Subscribe(NoticeRaised, func(Event) error { ran++; panic("kaput") })
		bus.Subscribe(NoticeRaised, func(Event) error { ran++; return nil })

		err := bus.Publish(NewEvent(context.Background(), NoticeRaised, Notice{}))

		require.Error(t, err)
		assert.ErrorIs(t, err, failure)
		assert.Contains(t, err.Error(), "kaput")
		assert.Equal(t, 3, ran)
	})

	t.Run("should not dispatch on cancelled context", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		bus.Subscribe(NoticeRaised, func(Event) error { called = true; return nil })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.Publish(NewEvent(ctx, NoticeRaised, Notice{}))

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}
