package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
)

// UserRepository — интерфейс доступа к таблице users.
type UserRepository interface {
	// GetByID возвращает пользователя по subject.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByUsername возвращает пользователя по preferred_username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// Save создаёт пользователя или перезаписывает все его поля.
	Save(ctx context.Context, u *model.User) error
	// Delete удаляет пользователя.
	Delete(ctx context.Context, id string) error
	// WithSubjectLock выполняет fn в транзакции, удерживая advisory lock
	// по subject. Репозиторий, переданный в fn, работает внутри этой транзакции.
	WithSubjectLock(ctx context.Context, subject string, fn func(UserRepository) error) error
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
// Для WithSubjectLock db должен поддерживать Begin (*pgxpool.Pool или pgx.Tx).
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, username, email, first_name, last_name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var role string
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&role, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = rbac.Role(role)
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE username = $1
		ORDER BY created_at
		LIMIT 1`, userColumns)

	u, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя по username: %w", err)
	}
	return u, nil
}

func (r *userRepo) Save(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	role := u.Role
	if role == "" {
		role = rbac.DefaultRole
	}

	err := r.db.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, role.String(),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	u.Role = role
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) WithSubjectLock(ctx context.Context, subject string, fn func(UserRepository) error) error {
	b, ok := r.db.(TxBeginner)
	if !ok {
		return errors.New("репозиторий пользователей не поддерживает транзакции")
	}

	return runInTx(ctx, b, func(tx pgx.Tx) error {
		// Блокировка снимается автоматически при завершении транзакции
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, subject); err != nil {
			return fmt.Errorf("ошибка блокировки subject: %w", err)
		}
		return fn(&userRepo{db: tx})
	})
}
