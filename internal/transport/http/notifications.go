package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fooddash/api/internal/notify"
)

// Subscriber is the hub surface the SSE endpoint needs.
type Subscriber interface {
	Subscribe(userID string) *notify.Subscription
	Drop(userID string, sub *notify.Subscription)
}

// HandleSubscribeNotifications streams order updates to the client as
// server-sent events. The stream stays open until the client disconnects or
// the hub closes the subscription (replacement, overflow, shutdown).
func HandleSubscribeNotifications(hub Subscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "user id required")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, codeStreamingUnsupported, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		sub := hub.Subscribe(userID)
		defer hub.Drop(userID, sub)

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-sub.Events():
				if !open {
					return
				}
				if err := writeSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, ev notify.Event) error {
	data := "Connected"
	if ev.Type != notify.EventInit {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		data = string(payload)
	}
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
