package middleware

import (
	"TrackingCar/internal/auth"
	"TrackingCar/internal/model"
	"TrackingCar/internal/response"
	"context"
	"net/http"
	"strings"
)

// Identity — аутентифицированный пользователь запроса.
type Identity struct {
	UserID   string
	Username string
	Role     model.UserRole
}

// AccessParser проверяет access-токен.
type AccessParser interface {
	ParseAccess(token string) (*auth.AccessClaims, error)
}

type ctxKey struct{}

// WithAuth кладёт в контекст пользователя из заголовка Authorization: Bearer.
// Запрос без токена или с невалидным токеном проходит анонимно.
func WithAuth(parser AccessParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := parser.ParseAccess(token)
			if err != nil {
				sugar.Debugw("access token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			id := Identity{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth отвечает 401, если пользователь не аутентифицирован.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			response.Fail(http.StatusUnauthorized, "unauthorized").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole пропускает только пользователей с одной из ролей.
func RequireRole(roles ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				response.Fail(http.StatusUnauthorized, "unauthorized").Write(w)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Fail(http.StatusForbidden, "forbidden").Write(w)
		})
	}
}

// WithIdentity возвращает контекст с пользователем.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// GetIdentity достаёт пользователя из контекста.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// GetUserIDFromContext достаёт идентификатор пользователя из контекста.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := GetIdentity(ctx)
	return id.UserID, ok
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
