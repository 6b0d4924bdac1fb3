package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"

	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
)

// Token хранит авторизационные токены пользователей. В базе сохраняется только
// SHA-256 от токена, токен действует 30 дней с момента выдачи.
type Token struct {
	db *sql.DB
}

const (
	saveTokenQuery      = "INSERT INTO tokens (token_hash, user_id) VALUES ($1, $2)"
	findTokenOwnerQuery = "SELECT user_id FROM tokens WHERE token_hash = $1 AND created_at > now() - interval '30 days'"
)

func NewToken(db *sql.DB) *Token {
	return &Token{db: db}
}

func (r *Token) Save(ctx context.Context, token string, userID int) error {
	_, err := r.db.ExecContext(ctx, saveTokenQuery, hashToken(token), userID)

	return err
}

// FindUserID возвращает идентификатор владельца действующего токена.
// Для неизвестного или просроченного токена возвращает errors.ErrUserNotFound.
func (r *Token) FindUserID(ctx context.Context, token string) (int, error) {
	userID := 0
	err := r.db.QueryRowContext(ctx, findTokenOwnerQuery, hashToken(token)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, inerr.ErrUserNotFound
	}

	return userID, err
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
