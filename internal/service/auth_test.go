package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/storageapp/internal/domain/model"
	"github.com/bigkaa/storageapp/internal/repository"
)

// mockAccountRepo — in-memory реализация AccountRepository.
type mockAccountRepo struct {
	byName map[string]*model.Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{byName: map[string]*model.Account{}}
}

func (m *mockAccountRepo) Register(_ context.Context, a *model.Account) error {
	if _, ok := m.byName[a.Name]; ok {
		return repository.ErrConflict
	}
	m.byName[a.Name] = a
	return nil
}

func (m *mockAccountRepo) GetByName(_ context.Context, name string) (*model.Account, error) {
	a, ok := m.byName[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

const testSecret = "test-secret-key"

func newTestAuthService(repo repository.AccountRepository) *AuthService {
	return NewAuthService(repo, []byte(testSecret), time.Hour, slog.Default())
}

// TestAuthService_RegisterAuthenticate проверяет полный цикл:
// регистрация → аутентификация → валидный токен с sub = ID аккаунта.
func TestAuthService_RegisterAuthenticate(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	if err := svc.Register(ctx, "user1", "secret-pass"); err != nil {
		t.Fatalf("Register ошибка: %v", err)
	}

	// Пароль хранится как bcrypt-хэш, не открытым текстом
	stored := repo.byName["user1"]
	if stored.PswHash == "secret-pass" {
		t.Fatal("пароль сохранён открытым текстом")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PswHash), []byte("secret-pass")); err != nil {
		t.Fatalf("хэш не соответствует паролю: %v", err)
	}

	tokenString, err := svc.Authenticate(ctx, "user1", "secret-pass")
	if err != nil {
		t.Fatalf("Authenticate ошибка: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		t.Fatalf("токен не прошёл проверку: %v", err)
	}
	if claims.Subject != stored.ID {
		t.Errorf("sub = %q, ожидался ID аккаунта %q", claims.Subject, stored.ID)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Error("токен выпущен без срока действия в будущем")
	}
}

// TestAuthService_Authenticate_WrongPassword проверяет единый отказ
// для неверного пароля и несуществующего аккаунта.
func TestAuthService_Authenticate_WrongPassword(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	if err := svc.Register(ctx, "user1", "right-pass"); err != nil {
		t.Fatalf("Register ошибка: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "user1", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("неверный пароль: err = %v, ожидался ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(ctx, "no-such-user", "right-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("несуществующий аккаунт: err = %v, ожидался ErrInvalidCredentials", err)
	}
}

// TestAuthService_Register_Duplicate проверяет конфликт имён.
func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(newMockAccountRepo())
	ctx := context.Background()

	if err := svc.Register(ctx, "user1", "pass"); err != nil {
		t.Fatalf("первая регистрация: %v", err)
	}
	if err := svc.Register(ctx, "user1", "other-pass"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("err = %v, ожидался ErrUsernameTaken", err)
	}
}

// TestAuthService_Register_InvalidUsername проверяет ограничения имени.
func TestAuthService_Register_InvalidUsername(t *testing.T) {
	svc := newTestAuthService(newMockAccountRepo())
	ctx := context.Background()

	if err := svc.Register(ctx, "", "pass"); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("пустое имя: err = %v, ожидался ErrInvalidUsername", err)
	}
	long := strings.Repeat("a", MaxUsernameLen+1)
	if err := svc.Register(ctx, long, "pass"); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("длинное имя: err = %v, ожидался ErrInvalidUsername", err)
	}
	if err := svc.Register(ctx, "user1", ""); err == nil {
		t.Error("пустой пароль принят")
	}
}
