package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Header carries a correlation ID set by a proxy in front of the service.
// The chosen ID is echoed back in the same header.
const Header = "X-Request-ID"

const (
	maxIncomingIDLen = 64
	idLen            = 8
)

type contextKey struct{}

// NewID returns the first 8 hex characters of a random UUID. Short enough to
// grep for, unique enough within a log retention window.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLen]
}

// FromHeader accepts an upstream correlation ID when it is short and made of
// letters, digits, '-' or '_'. Anything else is ignored so that log lines
// cannot be forged through the header.
func FromHeader(value string) (string, bool) {
	if value == "" || len(value) > maxIncomingIDLen {
		return "", false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", false
		}
	}
	return value, true
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID reports the correlation ID carried by ctx. Empty IDs count as absent.
func ID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Handler decorates every record logged with a request context with a
// "correlation_id" attribute.
type Handler struct {
	inner slog.Handler
}

func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ID(ctx); ok {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("correlation handler: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
