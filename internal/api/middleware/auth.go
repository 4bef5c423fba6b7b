// auth.go — JWT middleware аутентификации StorageApp.
// Токены выпускаются самим сервисом (HS256, локальный секрет),
// внешнего IdP нет. Из валидного токена извлекается sub — UUID
// аккаунта, он помещается в контекст запроса и становится
// владельцем для всех файловых операций.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/storageapp/internal/api/errors"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyAccountID — UUID аккаунта из проверенного токена.
const ContextKeyAccountID contextKey = "account_id"

// JWTAuth — middleware проверки токенов доступа.
type JWTAuth struct {
	secret  []byte
	leeway  time.Duration
	exclude []string
	logger  *slog.Logger
}

// NewJWTAuth создаёт JWT middleware.
// secret — ключ подписи HS256 (тот же, которым выпускаются токены).
// leeway — допустимое отклонение времени при проверке exp.
// exclude — префиксы путей, не требующие аутентификации
// (регистрация, выпуск токена, health, метрики).
func NewJWTAuth(secret []byte, leeway time.Duration, exclude []string, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		secret:  secret,
		leeway:  leeway,
		exclude: exclude,
		logger:  logger.With(slog.String("component", "jwt_auth")),
	}
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает Bearer token, валидирует подпись (HS256) и срок действия,
// помещает sub в контекст запроса.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if j.isExcluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// Извлекаем Bearer token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims,
				func(_ *jwt.Token) (interface{}, error) { return j.secret, nil },
				jwt.WithValidMethods([]string{"HS256"}),
				jwt.WithExpirationRequired(),
				jwt.WithLeeway(j.leeway),
			)
			if err != nil {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			if !token.Valid {
				apierrors.Unauthorized(w, "Невалидный токен")
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				apierrors.Unauthorized(w, "Отсутствует sub в токене")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAccountID, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isExcluded проверяет, входит ли путь в список исключений.
func (j *JWTAuth) isExcluded(path string) bool {
	for _, prefix := range j.exclude {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AccountFromContext извлекает UUID аккаунта из контекста запроса.
// Возвращает пустую строку, если запрос не прошёл аутентификацию.
func AccountFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyAccountID).(string)
	return id
}
