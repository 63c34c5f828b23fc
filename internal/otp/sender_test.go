package otp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddash/api/internal/logging"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	sent  []job
	err   error
	sentc chan struct{}
}

func newRecordingDispatcher(err error) *recordingDispatcher {
	return &recordingDispatcher{err: err, sentc: make(chan struct{}, 16)}
}

func (d *recordingDispatcher) Send(_ context.Context, identifier, code string) error {
	d.mu.Lock()
	d.sent = append(d.sent, job{identifier: identifier, code: code})
	d.mu.Unlock()
	d.sentc <- struct{}{}
	return d.err
}

func (d *recordingDispatcher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-d.sentc:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestAsyncSender_Delivers(t *testing.T) {
	t.Parallel()

	disp := newRecordingDispatcher(nil)
	sender := NewAsyncSender(disp, logging.NewDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sender.Run(ctx)

	sender.Dispatch(ctx, "user@x.com", "482913")
	disp.wait(t)

	disp.mu.Lock()
	defer disp.mu.Unlock()
	require.Len(t, disp.sent, 1)
	assert.Equal(t, "user@x.com", disp.sent[0].identifier)
	assert.Equal(t, "482913", disp.sent[0].code)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAsyncSender_LogsAndSwallowsFailure(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(buf, nil)))

	disp := newRecordingDispatcher(errors.New("smtp down"))
	sender := NewAsyncSender(disp, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sender.Run(ctx)

	sender.Dispatch(ctx, "user@x.com", "482913")
	disp.wait(t)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), "code=482913") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Contains(t, buf.String(), "failed to deliver OTP")
	assert.Contains(t, buf.String(), "code=482913", "fallback log must carry the code")
}
