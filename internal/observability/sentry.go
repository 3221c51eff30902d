package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// InitSentry is a no-op when no DSN is configured, so local development runs
// without error reporting.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
}

// FlushSentry drains buffered events before shutdown.
func FlushSentry() {
	sentry.Flush(sentryFlushTimeout)
}
