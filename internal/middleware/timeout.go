package middleware

import (
	"context"
	"net/http"
	"time"
)

// WithTimeout ограничивает время обработки запроса. Операции с БД и хранилищем
// получают этот контекст и прерываются вместе с ним.
func WithTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				h.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
