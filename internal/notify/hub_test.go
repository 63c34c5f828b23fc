package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddash/api/internal/domain"
	"github.com/fooddash/api/internal/logging"
)

func recv(t *testing.T, sub *Subscription) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		return ev, ok
	default:
		t.Fatal("expected a buffered event")
		return Event{}, false
	}
}

func TestHub_SubscribeSendsInit(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	sub := hub.Subscribe("user-1")

	ev, ok := recv(t, sub)
	require.True(t, ok)
	assert.Equal(t, EventInit, ev.Type)
}

func TestHub_PublishDelivered(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	sub := hub.Subscribe("user-1")
	recv(t, sub) // INIT

	hub.Publish(context.Background(), "user-1", Event{Type: EventOrderUpdate, OrderID: "o1", Status: "PREPARING"})

	ev, ok := recv(t, sub)
	require.True(t, ok)
	assert.Equal(t, EventOrderUpdate, ev.Type)
	assert.Equal(t, "o1", ev.OrderID)
	assert.Equal(t, "PREPARING", ev.Status)
}

func TestHub_PublishWithoutSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	// must not panic or error
	hub.Publish(context.Background(), "nobody", Event{Type: EventOrderUpdate, OrderID: "o1"})
}

func TestHub_ReplaceClosesOldChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	old := hub.Subscribe("user-1")
	recv(t, old) // INIT

	repl := hub.Subscribe("user-1")
	recv(t, repl) // INIT on the new channel

	_, ok := <-old.Events()
	assert.False(t, ok, "replaced channel must be closed")

	hub.Publish(context.Background(), "user-1", Event{Type: EventOrderUpdate, OrderID: "o1", Status: "DELIVERED"})

	ev, ok := recv(t, repl)
	require.True(t, ok)
	assert.Equal(t, "o1", ev.OrderID, "event after replacement goes only to the new channel")
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	sub := hub.Subscribe("user-1")
	recv(t, sub)

	hub.Unsubscribe("user-1")
	_, ok := <-sub.Events()
	assert.False(t, ok)

	hub.Unsubscribe("user-1")
	hub.Publish(context.Background(), "user-1", Event{Type: EventOrderUpdate})
}

func TestHub_DropOnlyRemovesCurrent(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	old := hub.Subscribe("user-1")
	recv(t, old)

	repl := hub.Subscribe("user-1")
	recv(t, repl)

	// the old stream writer unwinds after being replaced; its Drop must not
	// evict the replacement
	hub.Drop("user-1", old)

	hub.Publish(context.Background(), "user-1", Event{Type: EventOrderUpdate, OrderID: "o2"})
	ev, ok := recv(t, repl)
	require.True(t, ok)
	assert.Equal(t, "o2", ev.OrderID)
}

func TestHub_SlowSubscriberTornDown(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	sub := hub.Subscribe("user-1")

	ctx := context.Background()
	// fill the buffer without draining (INIT already occupies one slot)
	for i := 0; i < subscriptionBuffer; i++ {
		hub.Publish(ctx, "user-1", Event{Type: EventOrderUpdate, OrderID: "o"})
	}

	// drain everything; the channel must have been closed on overflow
	n := 0
	for range sub.Events() {
		n++
	}
	assert.Equal(t, subscriptionBuffer, n, "buffered events are still readable after teardown")
}

func TestHub_OrderStatusChanged(t *testing.T) {
	t.Parallel()

	hub := NewHub(logging.NewDefault())
	sub := hub.Subscribe("user-1")
	recv(t, sub)

	hub.OrderStatusChanged(context.Background(), domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.OrderStatusOutForDelivery,
	})

	ev, ok := recv(t, sub)
	require.True(t, ok)
	assert.Equal(t, EventOrderUpdate, ev.Type)
	assert.Equal(t, "order-1", ev.OrderID)
	assert.Equal(t, string(domain.OrderStatusOutForDelivery), ev.Status)
}
