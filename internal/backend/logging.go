package backend

import (
	"context"
	"log/slog"

	"github.com/example/culture-center/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func adapterLogger(ctx context.Context, base *slog.Logger, adapter, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	return logger.With(append([]any{"adapter", adapter, "operation", operation}, attrs...)...)
}
