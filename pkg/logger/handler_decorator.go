package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted replaces the value of attributes whose key is marked sensitive.
const Redacted = "[REDACTED]"

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// LogHandlerDecorator wraps a slog.Handler. It appends attributes taken from
// the record's context and masks the values of sensitive keys, including
// keys nested in groups.
type LogHandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
	redact     map[string]struct{}
}

// DecoratorOption configures LogHandlerDecorator.
type DecoratorOption func(*LogHandlerDecorator)

// WithExtractors registers context extractors. Nil extractors are dropped.
func WithExtractors(extractors ...ContextExtractor) DecoratorOption {
	return func(h *LogHandlerDecorator) {
		for _, ex := range extractors {
			if ex != nil {
				h.extractors = append(h.extractors, ex)
			}
		}
	}
}

// WithRedaction masks the given attribute keys. Matching is case-insensitive.
func WithRedaction(keys ...string) DecoratorOption {
	return func(h *LogHandlerDecorator) {
		for _, k := range keys {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				h.redact[k] = struct{}{}
			}
		}
	}
}

// NewLogHandlerDecorator creates a decorated handler.
func NewLogHandlerDecorator(next slog.Handler, opts ...DecoratorOption) slog.Handler {
	h := &LogHandlerDecorator{next: next, redact: make(map[string]struct{})}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *LogHandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle runs the extractors for every record so request-scoped values are
// read at log time.
func (h *LogHandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.redact) > 0 && rec.NumAttrs() > 0 {
		masked := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
		rec.Attrs(func(a slog.Attr) bool {
			masked.AddAttrs(h.mask(a))
			return true
		})
		rec = masked
	}

	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(h.mask(attr))
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *LogHandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := attrs
	if len(h.redact) > 0 {
		masked = make([]slog.Attr, len(attrs))
		for i, a := range attrs {
			masked[i] = h.mask(a)
		}
	}
	return &LogHandlerDecorator{
		next:       h.next.WithAttrs(masked),
		extractors: h.extractors,
		redact:     h.redact,
	}
}

func (h *LogHandlerDecorator) WithGroup(name string) slog.Handler {
	return &LogHandlerDecorator{
		next:       h.next.WithGroup(name),
		extractors: h.extractors,
		redact:     h.redact,
	}
}

func (h *LogHandlerDecorator) mask(a slog.Attr) slog.Attr {
	if len(h.redact) == 0 {
		return a
	}
	if _, ok := h.redact[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() != slog.KindGroup {
		return a
	}

	group := a.Value.Group()
	out := make([]any, len(group))
	for i, ga := range group {
		out[i] = h.mask(ga)
	}
	return slog.Group(a.Key, out...)
}
