package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/storageapp/internal/domain/model"
)

// AccountRepository — интерфейс доступа к таблице users.
type AccountRepository interface {
	// Register создаёт новый аккаунт.
	Register(ctx context.Context, a *model.Account) error
	// GetByName возвращает аккаунт по имени пользователя.
	GetByName(ctx context.Context, name string) (*model.Account, error)
}

// accountRepo — реализация AccountRepository через pgx.
type accountRepo struct {
	db DBTX
}

// NewAccountRepository создаёт репозиторий аккаунтов.
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Register(ctx context.Context, a *model.Account) error {
	query := `
		INSERT INTO users (id, name, psw_hash)
		VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, a.ID, a.Name, a.PswHash)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь с таким именем уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка регистрации аккаунта: %w", err)
	}
	return nil
}

func (r *accountRepo) GetByName(ctx context.Context, name string) (*model.Account, error) {
	query := `SELECT id, name, psw_hash FROM users WHERE name = $1`

	a := &model.Account{}
	err := r.db.QueryRow(ctx, query, name).Scan(&a.ID, &a.Name, &a.PswHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения аккаунта: %w", err)
	}
	return a, nil
}
