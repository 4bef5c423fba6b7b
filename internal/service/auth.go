// auth.go — регистрация аккаунтов и выпуск токенов доступа.
// Пароли хранятся как bcrypt-хэши, токены — JWT HS256 с sub = UUID
// аккаунта. Файловые операции получают владельца только из токена.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/storageapp/internal/domain/model"
	"github.com/bigkaa/storageapp/internal/repository"
)

// MaxUsernameLen — максимальная длина имени пользователя.
const MaxUsernameLen = 30

// Ошибки аутентификации.
var (
	// ErrInvalidCredentials — неверное имя пользователя или пароль.
	// Несуществующий аккаунт и неверный пароль не различаются.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrUsernameTaken — имя пользователя уже занято.
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
	// ErrInvalidUsername — пустое или слишком длинное имя пользователя.
	ErrInvalidUsername = errors.New("некорректное имя пользователя")
)

// AuthService — регистрация и аутентификация аккаунтов.
type AuthService struct {
	accounts repository.AccountRepository
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
// secret — ключ подписи HS256, tokenTTL — срок жизни токена.
func NewAuthService(
	accounts repository.AccountRepository,
	secret []byte,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger.With(slog.String("component", "auth_service")),
	}
}

// Register создаёт новый аккаунт с bcrypt-хэшем пароля.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if username == "" || len(username) > MaxUsernameLen {
		return fmt.Errorf("%w: длина от 1 до %d символов", ErrInvalidUsername, MaxUsernameLen)
	}
	if password == "" {
		return fmt.Errorf("%w: пустой пароль", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("хэширование пароля: %w", err)
	}

	account := &model.Account{
		ID:      uuid.New().String(),
		Name:    username,
		PswHash: string(hash),
	}
	if err := s.accounts.Register(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("регистрация аккаунта: %w", err)
	}

	s.logger.Info("Аккаунт зарегистрирован", slog.String("username", username))
	return nil
}

// Authenticate проверяет пару имя/пароль и выпускает токен доступа.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	account, err := s.accounts.GetByName(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("получение аккаунта: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PswHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   account.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}

	s.logger.Debug("Токен выпущен", slog.String("username", username))
	return signed, nil
}
