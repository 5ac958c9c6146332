package errors

import (
	"context"
	stderrors "errors"
	"log/slog"
)

// Handler reports errors to a log.
type Handler interface {
	// Handle logs err through logger, or through the handler's own logger
	// when logger is nil.
	Handle(ctx context.Context, err error, logger *slog.Logger)
}

// LogHandler logs structured errors at a level chosen by their type.
type LogHandler struct {
	logger *slog.Logger
}

var _ Handler = (*LogHandler)(nil)

// NewLogHandler creates a handler that falls back to logger.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// Handle implements Handler
func (h *LogHandler) Handle(ctx context.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}
	if logger == nil {
		logger = h.logger
	}

	var e *Error
	if !stderrors.As(err, &e) {
		logger.LogAttrs(ctx, slog.LevelError, "unhandled error", slog.String("error", err.Error()))
		return
	}

	logger.LogAttrs(ctx, Level(e), e.Message, Attrs(e)...)
}

// Level maps an error type to the level it is logged at. Rejected client
// input is routine and stays at info.
func Level(e *Error) slog.Level {
	switch e.Type {
	case ErrorTypeInternal, ErrorTypeProcess:
		return slog.LevelError
	case ErrorTypeTransport:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Attrs returns the log attributes describing e.
func Attrs(e *Error) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("error_code", e.Code),
		slog.String("error_type", e.Type.String()),
	}
	if e.Details != "" {
		attrs = append(attrs, slog.String("details", e.Details))
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	return attrs
}

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeParse:
		return "parse"
	case ErrorTypeExpansion:
		return "expansion"
	case ErrorTypeProcess:
		return "process"
	case ErrorTypeTransport:
		return "transport"
	case ErrorTypeInternal:
		return "internal"
	default:
		return "unknown"
	}
}
