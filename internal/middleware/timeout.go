package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

// Timeout ограничивает обработку дедлайном контекста.
// Если обработчик вышел по дедлайну и ничего не записал, отвечаем 504.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.wroteHeader || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return
			}

			requestId := GetRequestID(r.Context())
			logger.Warn(
				"HTTP: таймаут запроса",
				zap.String("request_id", requestId),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("timeout", timeout),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGatewayTimeout)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":      "request_timeout",
				"message":    "запрос обрабатывался слишком долго",
				"request_id": requestId,
			})
		})
	}
}
