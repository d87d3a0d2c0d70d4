package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tempizhere/goredirect/internal/config"
	"github.com/tempizhere/goredirect/internal/service"
	"go.uber.org/zap"
)

// UserIDKey для хранения UserID в контексте
type UserIDKey struct{}

// AuthMiddleware проверяет куку с JWT и выдаёт новую при её отсутствии.
// Применяется только к маршрутам /api, путь редиректа остаётся публичным
// и не трогает куки.
func AuthMiddleware(svc *service.Service, cfg *config.Config, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string

			if id, ok := r.Context().Value(UserIDKey{}).(string); ok && id != "" {
				userID = id
			} else if cookie, err := r.Cookie("jwt_token"); err == nil && cookie != nil {
				userID, err = svc.ParseJWT(cookie.Value)
				if err != nil {
					logger.Warn("Invalid JWT token", zap.Error(err))
					userID = ""
				}
			}

			// Листинг и статистика требуют существующей identity:
			// новый пользователь не может иметь ссылок
			if userID == "" && r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/links") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if userID == "" {
				var err error
				userID, err = svc.GenerateUserID()
				if err != nil {
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				token, err := svc.GenerateJWT(userID)
				if err != nil {
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     "jwt_token",
					Value:    token,
					Expires:  time.Now().Add(cfg.CookieTTL),
					Path:     "/",
					HttpOnly: true,
				})
			}

			ctx := context.WithValue(r.Context(), UserIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID извлекает UserID из контекста
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey{}).(string)
	return userID, ok
}
