package mail

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"accounts-service/internal/observability"
)

const sendTimeout = 15 * time.Second

// Dispatcher delivers mail best-effort in the background. A delivery failure
// is logged and reported but never reaches the operation that triggered it.
type Dispatcher struct {
	mailer Mailer
	logger *observability.Logger
}

func NewDispatcher(mailer Mailer, logger *observability.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, logger: logger}
}

func (d *Dispatcher) Dispatch(msg Message) {
	if d == nil || d.mailer == nil {
		return
	}

	go func() {
		// Detached from the request context so an early response does not
		// cancel delivery.
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := d.mailer.Send(ctx, msg); err != nil {
			sentry.CaptureException(err)
			d.logger.Error("email_delivery_failed", map[string]any{
				"to":      msg.To,
				"subject": msg.Subject,
				"error":   err.Error(),
			})
		}
	}()
}
