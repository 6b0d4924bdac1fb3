package repository

import (
	"context"
	"database/sql"
	"errors"

	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type User struct {
	db       *sql.DB
	currency string
}

const (
	insertUserQuery   = "INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id"
	insertWalletQuery = "INSERT INTO wallets (user_id, currency) VALUES ($1, $2)"
	findUserQuery     = "SELECT id, password_hash FROM users WHERE email = $1"
	findEmailQuery    = "SELECT email FROM users WHERE id = $1"
)

// NewUser создаёт репозиторий пользователей. Кошельки новых пользователей
// открываются в валюте currency.
func NewUser(db *sql.DB, currency string) *User {
	return &User{
		db:       db,
		currency: currency,
	}
}

// Create создает нового пользователя вместе с пустым кошельком и возвращает его id.
// Если пользователь с переданным email существует, возвращает ошибку errors.ErrUserExists.
func (r *User) Create(ctx context.Context, email, passwordHash string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	id := 0
	if err = tx.QueryRowContext(ctx, insertUserQuery, email, passwordHash).Scan(&id); err != nil {
		_ = tx.Rollback()
		if isPgError(err, pgerrcode.UniqueViolation) {
			err = inerr.ErrUserExists
		}

		return 0, err
	}

	if _, err = tx.ExecContext(ctx, insertWalletQuery, id, r.currency); err != nil {
		_ = tx.Rollback()

		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return id, nil
}

// FindByEmail возвращает id и хэш пароля пользователя с переданным email.
// Если пользователь не найден, возвращает ошибку errors.ErrUserNotFound.
func (r *User) FindByEmail(ctx context.Context, email string) (int, string, error) {
	var (
		id   = 0
		hash = ""
	)
	err := r.db.QueryRowContext(ctx, findUserQuery, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", inerr.ErrUserNotFound
	}

	return id, hash, err
}

// FindEmailByID возвращает email пользователя. Если пользователь не найден,
// возвращает ошибку errors.ErrUserNotFound.
func (r *User) FindEmailByID(ctx context.Context, id int) (string, error) {
	email := ""
	err := r.db.QueryRowContext(ctx, findEmailQuery, id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", inerr.ErrUserNotFound
	}

	return email, err
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == code
}
