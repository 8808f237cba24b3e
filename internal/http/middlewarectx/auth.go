// Package middlewarectx содержит HTTP middleware шлюза доступа.
//
// Authenticate извлекает из заголовка Authorization токен Bearer и определяет
// вызывающего пользователя: токен с префиксом ebt- считается API-ключом,
// любой другой — JWT сессии. ID пользователя кладётся в контекст запроса,
// обработчики читают только его и никогда не видят исходных учётных данных.
//
// Если токен отсутствует, некорректен или не подходит маршруту, возвращается
// HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/ebt/internal/http/response"
	"github.com/magabrotheeeer/ebt/internal/lib/apikey"
	"github.com/magabrotheeeer/ebt/internal/lib/sl"
	"github.com/magabrotheeeer/ebt/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID — ключ ID пользователя в контексте.
	UserID Key = "user_id"
	// SessionID — ключ ID сессии; отсутствует при входе по API-ключу.
	SessionID Key = "session_id"
)

// Credentials — набор допустимых для маршрута способов входа.
type Credentials int

const (
	// AllowSession разрешает JWT сессии.
	AllowSession Credentials = 1 << iota
	// AllowAPIKey разрешает API-ключ.
	AllowAPIKey

	// AllowAny — сессия или API-ключ.
	AllowAny = AllowSession | AllowAPIKey
)

// SessionResolver проверяет токен сессии.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (int64, string, error)
}

// APIKeyResolver находит владельца включённого API-ключа.
type APIKeyResolver interface {
	ResolveAPIKey(ctx context.Context, key string) (int64, error)
}

// Authenticate возвращает middleware, который пропускает запрос только
// с учётными данными из allow.
func Authenticate(log *slog.Logger, sessions SessionResolver, keys APIKeyResolver, allow Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			var (
				userID    int64
				sessionID string
				err       error
			)
			if apikey.LooksLikeKey(token) {
				if allow&AllowAPIKey == 0 {
					log.Warn("api key used on session-only route")
					response.Fail(w, r, http.StatusUnauthorized, "api key not accepted here")
					return
				}
				userID, err = keys.ResolveAPIKey(r.Context(), token)
			} else {
				if allow&AllowSession == 0 {
					log.Warn("session token used on api-key-only route")
					response.Fail(w, r, http.StatusUnauthorized, "api key required")
					return
				}
				userID, sessionID, err = sessions.ResolveSession(r.Context(), token)
			}

			if err != nil {
				if errors.Is(err, models.ErrUnauthorized) {
					log.Warn("invalid credentials", sl.Err(err))
					response.Fail(w, r, http.StatusUnauthorized, "invalid or expired credentials")
					return
				}
				log.Error("failed to resolve caller", sl.Err(err))
				response.Fail(w, r, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), UserID, userID)
			if sessionID != "" {
				ctx = context.WithValue(ctx, SessionID, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom возвращает ID пользователя, определённый Authenticate.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserID).(int64)
	return id, ok && id > 0
}

// SessionIDFrom возвращает ID сессии, если пользователь вошёл по токену сессии.
func SessionIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SessionID).(string)
	return id, ok && id != ""
}

// WithUserID кладёт ID пользователя в контекст.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserID, userID)
}
