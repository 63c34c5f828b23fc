package otp

import (
	"context"

	"github.com/fooddash/api/internal/logging"
)

// CredentialDispatcher delivers a freshly issued code to its identifier over
// an out-of-band channel (email or SMS).
type CredentialDispatcher interface {
	Send(ctx context.Context, identifier, code string) error
}

// LogDispatcher writes codes to the log instead of delivering them. Used in
// local development when no mail or SMS credentials are configured.
type LogDispatcher struct {
	logger logging.Logger
}

func NewLogDispatcher(l logging.Logger) *LogDispatcher {
	return &LogDispatcher{logger: l.With("module", "otp_dispatch")}
}

func (d *LogDispatcher) Send(ctx context.Context, identifier, code string) error {
	d.logger.Info(ctx, "OTP issued (log delivery)", "identifier", identifier, "code", code)
	return nil
}
