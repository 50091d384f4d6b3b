package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/logging"
)

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrBackend):
		return "backend"
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return "invalid_input"
	}
	return "unexpected"
}

// logOutcome writes the standard completion line for a service operation.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, "operation succeeded", attrs...)
		return
	}
	kind := ErrorKind(err)
	attrs = append(attrs, "error_kind", kind, "error", err)
	if kind == "unexpected" || kind == "backend" {
		logger.ErrorContext(ctx, "operation failed", attrs...)
		return
	}
	logger.WarnContext(ctx, "operation failed", attrs...)
}
