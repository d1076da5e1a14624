package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog with application-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a structured JSON logger at the given level.
func NewLogger(level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs one HTTP request with consistent fields.
func (l *Logger) RequestLogger(method, path, clientIP, requestID string, statusCode int, duration time.Duration) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("client_ip", clientIP),
		slog.String("request_id", requestID),
		slog.Int("status_code", statusCode),
		slog.Duration("duration", duration),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1000000),
	)
}

// ScoringLogger logs a scoring engine invocation.
func (l *Logger) ScoringLogger(modelVersion, deviceID string, score, confidence float64, duration time.Duration) {
	l.Info("scoring_completed",
		slog.String("model_version", modelVersion),
		slog.String("device_id", deviceID),
		slog.Float64("score", score),
		slog.Float64("confidence", confidence),
		slog.Duration("duration", duration),
	)
}

// APIErrorLogger logs API errors with context.
func (l *Logger) APIErrorLogger(method, path, requestID string, statusCode int, err error) {
	l.Error("api_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
		slog.Int("status_code", statusCode),
		slog.String("error", err.Error()),
	)
}

// SystemLogger logs system-level events.
func (l *Logger) SystemLogger(event string, details map[string]interface{}) {
	attrs := make([]any, 0, len(details)+1)
	attrs = append(attrs, slog.String("event", event))
	for k, v := range details {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.Info("system_event", attrs...)
}
