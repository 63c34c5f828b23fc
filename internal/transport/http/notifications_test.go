package http

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fooddash/api/internal/domain"
	"github.com/fooddash/api/internal/logging"
	"github.com/fooddash/api/internal/notify"
)

func notificationRouter(hub *notify.Hub) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/notifications/subscribe/{userID}", HandleSubscribeNotifications(hub))
	return r
}

// readFrame reads one SSE frame (up to the blank separator line).
func readFrame(t *testing.T, br *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestHandleSubscribeNotifications(t *testing.T) {
	hub := notify.NewHub(logging.NewDefault())
	srv := httptest.NewServer(notificationRouter(hub))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/notifications/subscribe/u-1")
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	br := bufio.NewReader(resp.Body)

	// the handshake event arrives before any order update
	frame := readFrame(t, br)
	if len(frame) != 2 || frame[0] != "event: INIT" || frame[1] != "data: Connected" {
		t.Fatalf("unexpected handshake frame %v", frame)
	}

	// the INIT frame proves the subscription is registered
	hub.OrderStatusChanged(context.Background(), domain.Order{
		ID:     "o-1",
		UserID: "u-1",
		Status: domain.OrderStatusOutForDelivery,
	})

	frame = readFrame(t, br)
	if len(frame) != 2 || frame[0] != "event: ORDER_UPDATE" {
		t.Fatalf("unexpected update frame %v", frame)
	}
	data := strings.TrimPrefix(frame[1], "data: ")
	if !strings.Contains(data, `"orderId":"o-1"`) || !strings.Contains(data, `"status":"OUT_FOR_DELIVERY"`) {
		t.Fatalf("unexpected update payload %s", data)
	}
}

func TestHandleSubscribeNotificationsReplacesStream(t *testing.T) {
	hub := notify.NewHub(logging.NewDefault())
	srv := httptest.NewServer(notificationRouter(hub))
	defer srv.Close()

	first, err := http.Get(srv.URL + "/api/notifications/subscribe/u-1")
	if err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	defer first.Body.Close()
	firstReader := bufio.NewReader(first.Body)
	readFrame(t, firstReader)

	second, err := http.Get(srv.URL + "/api/notifications/subscribe/u-1")
	if err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	defer second.Body.Close()
	secondReader := bufio.NewReader(second.Body)
	readFrame(t, secondReader)

	hub.Publish(context.Background(), "u-1", notify.Event{
		Type:    notify.EventOrderUpdate,
		OrderID: "o-2",
		Status:  string(domain.OrderStatusPreparing),
	})

	frame := readFrame(t, secondReader)
	if len(frame) != 2 || frame[0] != "event: ORDER_UPDATE" {
		t.Fatalf("unexpected frame on replacement stream %v", frame)
	}

	// the first stream was closed when the second connected
	done := make(chan struct{})
	go func() {
		_, _ = firstReader.ReadString('\n')
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first stream still open after replacement")
	}
}

type noFlushWriter struct {
	header http.Header
	code   int
}

func (w *noFlushWriter) Header() http.Header  { return w.header }
func (w *noFlushWriter) WriteHeader(code int) { w.code = code }
func (w *noFlushWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return len(b), nil
}

func TestHandleSubscribeNotificationsRequiresStreaming(t *testing.T) {
	hub := notify.NewHub(logging.NewDefault())
	req := httptest.NewRequest(http.MethodGet, "/api/notifications/subscribe/u-1", nil)
	w := &noFlushWriter{header: make(http.Header)}

	notificationRouter(hub).ServeHTTP(w, req)

	if w.code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without flush support, got %d", w.code)
	}
}
