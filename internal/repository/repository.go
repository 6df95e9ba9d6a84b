// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс)
	// или удаление записи, на которую ссылаются другие.
	ErrConflict = errors.New("конфликт — запись уже существует")
	// ErrInvalidReference — ссылка на несуществующую запись.
	ErrInvalidReference = errors.New("ссылка на несуществующую запись")
	// ErrConstraint — нарушение CHECK-ограничения схемы или длины поля.
	ErrConstraint = errors.New("нарушение ограничения данных")
	// ErrStale — запись изменена после чтения, обновление не применено.
	ErrStale = errors.New("запись изменена параллельно")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner открывает транзакцию. Реализуется *pgxpool.Pool и pgx.Tx
// (во втором случае создаётся savepoint).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// runInTx выполняет fn внутри транзакции.
// При ошибке fn — транзакция откатывается, при успехе — коммитится.
func runInTx(ctx context.Context, db TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	return hasSQLState(err, "23505") // unique_violation
}

// isForeignKeyViolation — ссылка на несуществующую запись или удаление
// записи, на которую ещё ссылаются.
func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, "23503") // foreign_key_violation
}

// isCheckViolation — нарушение CHECK-ограничения (например, порядок дат).
func isCheckViolation(err error) bool {
	return hasSQLState(err, "23514") // check_violation
}

// isStringTooLong — значение длиннее VARCHAR(n) колонки.
func isStringTooLong(err error) bool {
	return hasSQLState(err, "22001") // string_data_right_truncation
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// RequestFilter — фильтр списков заявок.
type RequestFilter struct {
	// Status — точное совпадение статуса без учёта регистра (пусто — любой)
	Status string
	// OwnerID — только заявки пользователя (пусто — все)
	OwnerID string
}

// Revision — состояние заявки на момент чтения. Полное обновление
// применяется, только если запись с тех пор не менялась.
type Revision struct {
	Status    string
	UpdatedAt time.Time
}
