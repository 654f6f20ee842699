// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов,
// ограничения частоты запросов и проверки ролей.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст id пользователя и роль
// для дальнейшего использования в обработчиках.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для id пользователя в контексте
	User Key = "user_id"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (models.Caller, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет id пользователя и роль в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			caller, err := authService.ValidateToken(r.Context(), tokenStr)
			if err != nil || caller.UserID == "" {
				log.Error("invalid or expired token", sl.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller кладёт данные пользователя в контекст.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	ctx = context.WithValue(ctx, User, caller.UserID)
	return context.WithValue(ctx, Role, caller.Role)
}

// CallerFrom достаёт данные пользователя из контекста.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	userID, ok := ctx.Value(User).(string)
	if !ok || userID == "" {
		return models.Caller{}, false
	}
	role, _ := ctx.Value(Role).(string)
	return models.Caller{UserID: userID, Role: role}, true
}

// RequireRole пропускает только пользователей с указанной ролью.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFrom(r.Context())
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if caller.Role != role {
				log.Warn("access denied", slog.String("user_id", caller.UserID), slog.String("required_role", role))
				response.Fail(w, r, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
