// users.go — обработчики учётных операций:
// POST /api/users/register, POST /api/users/auth.
// Оба endpoint открыты — не требуют токена.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/storageapp/internal/api/errors"
	"github.com/bigkaa/storageapp/internal/service"
)

// registerRequest — тело запроса регистрации.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse — ответ выпуска токена.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleRegister — реализация POST /api/users/register.
func (h *APIHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			apierrors.Conflict(w, "Имя пользователя уже занято")
		case errors.Is(err, service.ErrInvalidUsername), errors.Is(err, service.ErrInvalidCredentials):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка регистрации аккаунта",
				slog.String("username", req.Username),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка при регистрации")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// handleAuth — реализация POST /api/users/auth.
// Принимает form data (username, password), возвращает bearer-токен.
func (h *APIHandler) handleAuth(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apierrors.ValidationError(w, "Некорректные form data")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		apierrors.ValidationError(w, "Требуются поля username и password")
		return
	}

	token, err := h.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(w, "Неверное имя пользователя или пароль")
			return
		}
		h.logger.Error("Ошибка аутентификации",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при аутентификации")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
