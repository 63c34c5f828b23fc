// Package notify implements the per-user live notification channel registry.
// Delivery is best-effort: events for users without an open channel are
// dropped, and a channel that cannot accept an event is torn down.
package notify

import (
	"context"

	"github.com/fooddash/api/internal/domain"
	"github.com/fooddash/api/internal/logging"
	"github.com/fooddash/api/internal/shardmap"
)

const (
	EventInit        = "INIT"
	EventOrderUpdate = "ORDER_UPDATE"
)

// Event is a single message pushed to a subscriber.
type Event struct {
	Type    string `json:"-"`
	OrderID string `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Subscription is one user's open event stream. The hub owns the channel:
// subscribers only read, and the channel is closed by the hub when the
// subscription is replaced, dropped, or the event buffer overflows.
type Subscription struct {
	events chan Event
}

// Events is the stream to drain. It is closed when the subscription dies.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

const subscriptionBuffer = 16

// Hub holds at most one active subscription per user.
type Hub struct {
	subs   *shardmap.Map[*Subscription]
	logger logging.Logger
}

func NewHub(l logging.Logger) *Hub {
	return &Hub{
		subs:   shardmap.New[*Subscription](),
		logger: l.With("module", "notify_hub"),
	}
}

// Subscribe opens a stream for userID, replacing and closing any existing
// one. An INIT event is enqueued before Subscribe returns so the caller can
// tell a live channel from a dead one.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{events: make(chan Event, subscriptionBuffer)}
	sub.events <- Event{Type: EventInit}

	h.subs.Update(userID, func(cur *Subscription, exists bool) (*Subscription, bool) {
		if exists {
			close(cur.events)
		}
		return sub, true
	})
	return sub
}

// Publish delivers ev to userID's subscription if one exists. No subscriber
// means the event is silently dropped; a full buffer means the subscriber is
// not keeping up and its subscription is closed. Publish never fails the
// caller.
func (h *Hub) Publish(ctx context.Context, userID string, ev Event) {
	dropped := false
	h.subs.Update(userID, func(cur *Subscription, exists bool) (*Subscription, bool) {
		if !exists {
			return cur, false
		}
		select {
		case cur.events <- ev:
			return cur, true
		default:
			close(cur.events)
			dropped = true
			return cur, false
		}
	})
	if dropped {
		h.logger.Warn(ctx, "subscriber not draining, channel closed", "user_id", userID)
	}
}

// OrderStatusChanged pushes an ORDER_UPDATE for the order's owner.
func (h *Hub) OrderStatusChanged(ctx context.Context, order domain.Order) {
	h.Publish(ctx, order.UserID, Event{
		Type:    EventOrderUpdate,
		OrderID: order.ID,
		Status:  string(order.Status),
	})
}

// Unsubscribe tears down userID's subscription. Idempotent.
func (h *Hub) Unsubscribe(userID string) {
	h.subs.Update(userID, func(cur *Subscription, exists bool) (*Subscription, bool) {
		if exists {
			close(cur.events)
		}
		return cur, false
	})
}

// Drop removes sub only if it is still the current subscription for userID.
// The stream writer calls this on client disconnect; a subscription that was
// already replaced must not evict its replacement.
func (h *Hub) Drop(userID string, sub *Subscription) {
	h.subs.Update(userID, func(cur *Subscription, exists bool) (*Subscription, bool) {
		if !exists || cur != sub {
			return cur, exists
		}
		close(cur.events)
		return cur, false
	})
}
