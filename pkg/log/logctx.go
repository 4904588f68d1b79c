// log — прокладка логгера и request_id через context.
//
// Логгер кладётся в контекст на границе диспетчера запросов и доступен
// любому слою ниже без явной передачи. request_id сопровождает каждый
// исходящий вызов и попадает в финальную запись лога и в заголовок
// X-Request-Id.
package log

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey struct{}

type ridKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// WithRequestID кладёт request_id в контекст.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ridKey{}, rid)
}

// RequestID достаёт request_id из контекста ("" — если не задан).
func RequestID(ctx context.Context) string {
	if v := ctx.Value(ridKey{}); v != nil {
		if rid, ok := v.(string); ok {
			return rid
		}
	}

	return ""
}

// EnsureRequestID возвращает request_id из контекста или генерирует новый
// и возвращает обогащённый контекст.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if rid := RequestID(ctx); rid != "" {
		return ctx, rid
	}

	rid := uuid.NewString()

	return WithRequestID(ctx, rid), rid
}
