package logger

import (
	"context"
	"log/slog"
	"runtime"
)

// conditionalSourceHandler adds the caller's source location only for the
// configured levels, keeping info/debug lines compact while warnings and
// errors stay traceable. The wrapped handler must run with AddSource: false.
type conditionalSourceHandler struct {
	inner      slog.Handler
	withSource map[slog.Level]bool
}

// NewConditionalSourceHandler wraps a handler so records at the given levels
// carry a source attribute and all other records do not.
func NewConditionalSourceHandler(inner slog.Handler, levels ...slog.Level) slog.Handler {
	withSource := make(map[slog.Level]bool, len(levels))
	for _, l := range levels {
		withSource[l] = true
	}
	return &conditionalSourceHandler{inner: inner, withSource: withSource}
}

func (h *conditionalSourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.withSource[r.Level] {
		// Skip Callers, Handle and the slog frame between us and the call site.
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		frame, _ := runtime.CallersFrames(pcs[:]).Next()
		r.AddAttrs(slog.Attr{
			Key: slog.SourceKey,
			Value: slog.AnyValue(&slog.Source{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			}),
		})
	}
	return h.inner.Handle(ctx, r)
}

func (h *conditionalSourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &conditionalSourceHandler{inner: h.inner.WithAttrs(attrs), withSource: h.withSource}
}

func (h *conditionalSourceHandler) WithGroup(name string) slog.Handler {
	return &conditionalSourceHandler{inner: h.inner.WithGroup(name), withSource: h.withSource}
}

func (h *conditionalSourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}
