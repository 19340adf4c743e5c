package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-pos/internal/common"
)

// NewLogger builds the process logger writing to stdout. format "console" (or
// "text") is human readable, anything else is JSON. Unknown levels mean info.
func NewLogger(format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return newLogger(os.Stdout, format)
}

func newLogger(w io.Writer, format string) zerolog.Logger {
	if f := strings.ToLower(strings.TrimSpace(format)); f == "console" || f == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the emitting subsystem.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// RequestLogger writes one "http_request" line per request. 5xx responses log at
// error level and 4xx at warn.
type RequestLogger struct {
	Logger zerolog.Logger
}

func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := NewStatusRecorder(w)
		ctx, owner := common.WithOwnerSlot(r.Context())
		r = r.WithContext(ctx)
		start := time.Now()
		next.ServeHTTP(rec, r)

		status := rec.Status()
		evt := l.Logger.WithLevel(levelFor(status)).
			Str("method", r.Method).
			Str("route", routeOf(r, r.URL.Path)).
			Str("path", r.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("bytes", rec.BytesWritten()).
			Str("request_id", middleware.GetReqID(ctx))
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			evt = evt.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		optional := [][2]string{
			{"owner_id", *owner},
			{"remote_addr", r.RemoteAddr},
			{"user_agent", r.UserAgent()},
		}
		for _, kv := range optional {
			if v := strings.TrimSpace(kv[1]); v != "" {
				evt = evt.Str(kv[0], v)
			}
		}
		evt.Msg("http_request")
	})
}

func levelFor(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
