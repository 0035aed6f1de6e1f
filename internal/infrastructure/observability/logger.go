package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type screenKey struct{}

// InitLogger configures the global logger for the dashboard API. Operators
// read development logs on a terminal; deployed kiosks ship JSON lines.
func InitLogger(serviceName, env, level string) {
	configureLogger(os.Stdout, serviceName, env, level)
}

func configureLogger(out io.Writer, serviceName, env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(out).With().Timestamp()
	if env == "development" {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp()
	} else {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Str("service", serviceName).Str("env", env).Logger()

	if err != nil {
		log.Warn().Str("log_level", level).Msg("unknown LOG_LEVEL, using info")
	}
}

// WithScreen tags ctx with the screen a request is rendering or editing
func WithScreen(ctx context.Context, screenID string) context.Context {
	return context.WithValue(ctx, screenKey{}, screenID)
}

// LoggerFromContext returns the global logger with the screen, trace and span
// of ctx attached when present
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	lc := log.With()
	if screenID, ok := ctx.Value(screenKey{}).(string); ok && screenID != "" {
		lc = lc.Str("screen_id", screenID)
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}
	logger := lc.Logger()
	return &logger
}
