package center

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/culture-center/internal/logging"
	"github.com/example/culture-center/internal/metrics"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func registryLogger(ctx context.Context, base *slog.Logger, registry, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"registry", registry}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// finish logs the outcome of a registry operation and records its metrics.
func finish(ctx context.Context, logger *slog.Logger, registry, operation string, start time.Time, err error, success string, attrs ...any) {
	kind := ErrorKind(err)
	metrics.ObserveOperation(registry, operation, kind, time.Since(start))
	if err != nil {
		logger.ErrorContext(ctx, operation+" failed", "error", err, "error_kind", kind)
		return
	}
	logger.With(attrs...).InfoContext(ctx, success)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyApplied):
		return "already_applied"
	case errors.Is(err, ErrClosedForSubmission):
		return "closed_for_submission"
	case errors.Is(err, ErrUpstreamFailure):
		return "upstream"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
