package util

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// RequestLogger holds request-scoped context to enrich logs.
type RequestLogger struct {
	logger    *zap.SugaredLogger
	method    string
	path      string
	requestID string
}

// WithRequest creates a request-scoped logger wrapping the provided logger.
func WithRequest(l *zap.SugaredLogger, r *http.Request, requestID string) *RequestLogger {
	if l == nil {
		l = zap.S()
	}

	fields := []any{"method", r.Method, "path", r.URL.Path}
	if requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	return &RequestLogger{
		logger:    l.With(fields...),
		method:    r.Method,
		path:      r.URL.Path,
		requestID: requestID,
	}
}

// ContextWithLogger stores the request logger in context for downstream handlers.
func ContextWithLogger(ctx context.Context, rl *RequestLogger) context.Context {
	return context.WithValue(ctx, loggerKey, rl)
}

func (rl *RequestLogger) Debugw(msg string, kv ...any) { rl.logger.Debugw(msg, kv...) }
func (rl *RequestLogger) Infow(msg string, kv ...any)  { rl.logger.Infow(msg, kv...) }
func (rl *RequestLogger) Warnw(msg string, kv ...any)  { rl.logger.Warnw(msg, kv...) }
func (rl *RequestLogger) Errorw(msg string, kv ...any) { rl.logger.Errorw(msg, kv...) }

func (rl *RequestLogger) RequestID() string { return rl.requestID }

// FromContext retrieves a request logger from context when available.
func FromContext(ctx context.Context) *RequestLogger {
	if ctx == nil {
		return nil
	}

	if rl, ok := ctx.Value(loggerKey).(*RequestLogger); ok {
		return rl
	}

	return nil
}

// LoggerFor returns the request logger stored on r, or a fresh one wrapping
// fallback when the request did not pass through the logging middleware.
func LoggerFor(r *http.Request, fallback *zap.SugaredLogger) *RequestLogger {
	if rl := FromContext(r.Context()); rl != nil {
		return rl
	}

	return WithRequest(fallback, r, "")
}
