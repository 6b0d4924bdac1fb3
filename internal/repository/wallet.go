package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
)

type Wallet struct {
	db *sql.DB
}

const findWalletQuery = "SELECT user_id, ledger_balance, available_balance, currency, updated_at FROM wallets WHERE user_id = $1"

func NewWallet(db *sql.DB) *Wallet {
	return &Wallet{db: db}
}

// FindByUserID возвращает кошелёк пользователя.
func (r *Wallet) FindByUserID(ctx context.Context, userID int) (entity.Wallet, error) {
	w := entity.Wallet{}
	err := r.db.QueryRowContext(ctx, findWalletQuery, userID).
		Scan(&w.UserID, &w.LedgerBalance, &w.AvailableBalance, &w.Currency, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return w, inerr.ErrWalletNotFound
	}

	return w, err
}
