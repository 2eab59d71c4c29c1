package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// New builds the service logger and installs it as the slog default.
// Development: text output at Debug. Otherwise JSON at Info.
// With a Sentry DSN, error records are also sent to Sentry.
func New(isDev bool, sentryDSN string) *slog.Logger {
	log := newLogger(os.Stdout, isDev, sentryDSN)
	slog.SetDefault(log)
	return log
}

func newLogger(w io.Writer, isDev bool, sentryDSN string) *slog.Logger {
	var handlers []slog.Handler

	if isDev {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	var sentryErr error
	if sentryDSN != "" {
		sentryErr = sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if sentryErr == nil {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	log := slog.New(handler).With("service", "studia")
	if sentryErr != nil {
		log.Warn("sentry disabled, SENTRY_DSN rejected", "error", sentryErr)
	}
	return log
}
