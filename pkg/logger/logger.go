package logger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// New creates a structured slog.Logger based on the provided level string.
// Output goes to the console as text and to logs/ as JSON for parsing.
func New(level string) (*slog.Logger, error) {
	handlerLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, err
	}

	appFile, err := os.OpenFile(filepath.Join("logs", "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	errorFile, err := os.OpenFile(filepath.Join("logs", "error.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: handlerLevel})
	fileHandler := slog.NewJSONHandler(appFile, &slog.HandlerOptions{Level: handlerLevel})
	errorHandler := slog.NewJSONHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError})

	return slog.New(newTeeHandler(handlerLevel, consoleHandler, fileHandler, errorHandler)), nil
}

// teeHandler fans records out to the console handler, the app log, and the
// error log for records at error level or above.
type teeHandler struct {
	level     slog.Leveler
	console   slog.Handler
	file      slog.Handler
	errorFile slog.Handler
}

func newTeeHandler(level slog.Leveler, console, file, errorFile slog.Handler) *teeHandler {
	return &teeHandler{
		level:     level,
		console:   console,
		file:      file,
		errorFile: errorFile,
	}
}

func (h *teeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.console.Handle(ctx, r); err != nil {
		return err
	}

	if err := h.file.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= slog.LevelError {
		return h.errorFile.Handle(ctx, r)
	}

	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{
		level:     h.level,
		console:   h.console.WithAttrs(attrs),
		file:      h.file.WithAttrs(attrs),
		errorFile: h.errorFile.WithAttrs(attrs),
	}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{
		level:     h.level,
		console:   h.console.WithGroup(name),
		file:      h.file.WithGroup(name),
		errorFile: h.errorFile.WithGroup(name),
	}
}

func parseLevel(level string) (slog.Leveler, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, errors.New("invalid log level")
	}
}
