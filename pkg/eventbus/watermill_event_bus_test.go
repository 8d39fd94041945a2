package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicops/complaintflow/pkg/channels/gochannel"
	"github.com/civicops/complaintflow/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.RunRequested, 1)

	err := bus.Handle(events.RunRequestedEvent, func(_ context.Context, event any) error {
		requested, ok := event.(*events.RunRequested)
		if ok {
			received <- requested
		}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.RunRequested{
		BaseEvent: events.BaseEvent{
			ID:          bus.GenerateID(),
			Type:        events.RunRequestedEvent,
			Timestamp:   time.Now().UTC(),
			WorkflowID:  "wf-1",
			ComplaintID: "C-1",
		},
		TriggerSource: "api",
	}

	require.NoError(t, bus.Publish(ctx, "C-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, "api", got.TriggerSource)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsAcked(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan struct{}, 1)

	err := bus.Handle(events.RunCompletedEvent, func(_ context.Context, _ any) error {
		received <- struct{}{}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for run.started: the message is acked and
	// later events still flow.
	started := events.RunStarted{
		BaseEvent:   events.BaseEvent{ID: bus.GenerateID(), Type: events.RunStartedEvent},
		ExecutionID: "exec-1",
	}
	require.NoError(t, bus.Publish(ctx, "C-1", started))

	completed := events.RunCompleted{
		BaseEvent:   events.BaseEvent{ID: bus.GenerateID(), Type: events.RunCompletedEvent},
		ExecutionID: "exec-1",
	}
	require.NoError(t, bus.Publish(ctx, "C-1", completed))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completed event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
