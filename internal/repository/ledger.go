package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/jackc/pgerrcode"
	"github.com/shopspring/decimal"
)

// Ledger хранит движения средств и изменяет балансы кошельков. Каждая операция
// выполняется в одной транзакции БД, поэтому записи и балансы не расходятся.
type Ledger struct {
	db *sql.DB
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	transactionColumns = "id, reference, type, status, amount, fee, currency, sender_id, recipient_id, listing_id, gateway, created_at, updated_at"

	insertTransactionQuery = `
INSERT INTO transactions (reference, type, status, amount, fee, currency, sender_id, recipient_id, listing_id, gateway)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at, updated_at`

	findTransactionQuery         = "SELECT " + transactionColumns + " FROM transactions WHERE reference = $1"
	lockTransactionQuery         = findTransactionQuery + " FOR UPDATE"
	updateTransactionStatusQuery = "UPDATE transactions SET status = $2, updated_at = now() WHERE id = $1 RETURNING updated_at"

	findUserTransactionsQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE (sender_id = $1 AND type IN ('payment', 'charge', 'transfer_out', 'withdraw'))
   OR (recipient_id = $1 AND type IN ('deposit', 'transfer_in'))
ORDER BY created_at, id`

	findPendingTransactionsQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE status = 'pending'
  AND gateway IS NOT NULL
ORDER BY created_at, id`

	reserveListingQuery = "UPDATE listings SET status = 'reserved' WHERE id = $1 AND status = 'available'"
	sellListingQuery    = "UPDATE listings SET status = 'sold' WHERE id = $1 AND status IN ('available', 'reserved')"
	releaseListingQuery = "UPDATE listings SET status = 'available' WHERE id = $1 AND status = 'reserved'"

	lockWalletQuery    = "SELECT currency FROM wallets WHERE user_id = $1 FOR UPDATE"
	lockWalletsQuery   = "SELECT user_id, currency FROM wallets WHERE user_id IN ($1, $2) ORDER BY user_id FOR UPDATE"
	creditWalletQuery  = "UPDATE wallets SET ledger_balance = ledger_balance + $2, available_balance = available_balance + $2, updated_at = now() WHERE user_id = $1"
	debitWalletQuery   = "UPDATE wallets SET ledger_balance = ledger_balance - $2, available_balance = available_balance - $2, updated_at = now() WHERE user_id = $1"
	creditLedgerQuery  = "UPDATE wallets SET ledger_balance = ledger_balance + $2, updated_at = now() WHERE user_id = $1"
	unlockBalanceQuery = "UPDATE wallets SET available_balance = available_balance + $2, updated_at = now() WHERE user_id = $1"
)

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Create сохраняет новую транзакцию в статусе pending. При повторном использовании
// референса возвращает ошибку errors.ErrDuplicateReference.
func (r *Ledger) Create(ctx context.Context, t *entity.Transaction) error {
	t.Status = entity.TransactionStatusPending

	return insertTransaction(ctx, r.db, t)
}

// Reserve резервирует объявление за покупателем и сохраняет платёж через шлюз
// в статусе pending. Если объявление уже зарезервировано или продано, возвращает
// ошибку errors.ErrListingUnavailable.
func (r *Ledger) Reserve(ctx context.Context, t *entity.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateListing(ctx, tx, reserveListingQuery, *t.ListingID); err != nil {
			return err
		}

		t.Status = entity.TransactionStatusPending

		return insertTransaction(ctx, tx, t)
	})
}

// PayFromWallet проводит оплату объявления с кошелька покупателя: объявление
// помечается проданным, с покупателя списывается полная сумма, продавцу
// зачисляется сумма за вычетом комиссии.
func (r *Ledger) PayFromWallet(ctx context.Context, t *entity.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		currencies, err := lockWallets(ctx, tx, *t.SenderID, *t.RecipientID)
		if err != nil {
			return err
		}

		if currencies[*t.SenderID] != t.Currency || currencies[*t.RecipientID] != t.Currency {
			return inerr.ErrCurrencyMismatch
		}

		if err = updateListing(ctx, tx, sellListingQuery, *t.ListingID); err != nil {
			return err
		}

		if err = changeBalance(ctx, tx, debitWalletQuery, *t.SenderID, t.Amount); err != nil {
			return err
		}

		t.Status = entity.TransactionStatusCompleted
		if err = insertTransaction(ctx, tx, t); err != nil {
			return err
		}

		return payout(ctx, tx, *t)
	})
}

// Settle переводит транзакцию reference в статус status и применяет изменения
// балансов. Строка транзакции блокируется до конца операции, поэтому платёж
// проводится ровно один раз: повторная попытка вернёт errors.ErrAlreadySettled.
func (r *Ledger) Settle(ctx context.Context, reference string, status entity.TransactionStatus) (entity.Transaction, error) {
	var t entity.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if t, err = lockTransaction(ctx, tx, reference); err != nil {
			return err
		}

		if err = setStatus(ctx, tx, &t, status); err != nil {
			return err
		}

		switch {
		case t.Type == entity.TransactionTypeDeposit && status == entity.TransactionStatusCompleted:
			return changeBalance(ctx, tx, creditWalletQuery, *t.RecipientID, t.Amount)
		case t.Type == entity.TransactionTypePayment && status == entity.TransactionStatusCompleted:
			if err = updateListing(ctx, tx, sellListingQuery, *t.ListingID); err != nil {
				return err
			}

			return payout(ctx, tx, t)
		case t.Type == entity.TransactionTypePayment && status == entity.TransactionStatusFailed:
			_, err = tx.ExecContext(ctx, releaseListingQuery, *t.ListingID)

			return err
		}

		return nil
	})

	return t, err
}

// Release подтверждает получение товара покупателем buyerID: заблокированная
// выплата продавцу по платежу reference становится доступной для вывода. Если
// комиссия равна цене, выплаты нет и возвращается сам платёж.
func (r *Ledger) Release(ctx context.Context, reference string, buyerID int) (entity.Transaction, error) {
	var payoutTx entity.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		payment, err := lockTransaction(ctx, tx, reference)
		if err != nil {
			return err
		}

		if payment.Type != entity.TransactionTypePayment || payment.SenderID == nil || *payment.SenderID != buyerID {
			return inerr.ErrTransactionNotFound
		}

		if payment.Status != entity.TransactionStatusCompleted {
			return inerr.ErrInvalidTransition
		}

		if !payment.Net().IsPositive() {
			payoutTx = payment

			return nil
		}

		if payoutTx, err = lockTransaction(ctx, tx, entity.PayoutReference(reference)); err != nil {
			return err
		}

		if err = setStatus(ctx, tx, &payoutTx, entity.TransactionStatusCompleted); err != nil {
			return err
		}

		return changeBalance(ctx, tx, unlockBalanceQuery, *payoutTx.RecipientID, payoutTx.Amount)
	})

	return payoutTx, err
}

// Withdraw списывает amount с кошелька пользователя. При нехватке доступных
// средств возвращает ошибку errors.ErrInsufficientFunds.
func (r *Ledger) Withdraw(ctx context.Context, userID int, amount decimal.Decimal, reference string) (entity.Transaction, error) {
	t := entity.Transaction{
		Reference: reference,
		Type:      entity.TransactionTypeWithdraw,
		Status:    entity.TransactionStatusCompleted,
		Amount:    amount,
		Fee:       decimal.Zero,
		SenderID:  &userID,
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, lockWalletQuery, userID).Scan(&t.Currency)
		if errors.Is(err, sql.ErrNoRows) {
			return inerr.ErrWalletNotFound
		}

		if err != nil {
			return err
		}

		if err = changeBalance(ctx, tx, debitWalletQuery, userID, amount); err != nil {
			return err
		}

		return insertTransaction(ctx, tx, &t)
	})

	return t, err
}

// Transfer переводит amount с кошелька from на кошелёк to. Кошельки блокируются
// в порядке возрастания id пользователя. Перевод между кошельками в разных
// валютах возвращает ошибку errors.ErrCurrencyMismatch.
func (r *Ledger) Transfer(ctx context.Context, from, to int, amount decimal.Decimal, reference string) (entity.Transaction, error) {
	out := entity.Transaction{
		Reference:   reference,
		Type:        entity.TransactionTypeTransferOut,
		Status:      entity.TransactionStatusCompleted,
		Amount:      amount,
		Fee:         decimal.Zero,
		SenderID:    &from,
		RecipientID: &to,
	}
	if from == to {
		return out, inerr.ErrInvalidArgument
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		currencies, err := lockWallets(ctx, tx, from, to)
		if err != nil {
			return err
		}

		if currencies[from] != currencies[to] {
			return inerr.ErrCurrencyMismatch
		}

		out.Currency = currencies[from]
		if err = changeBalance(ctx, tx, debitWalletQuery, from, amount); err != nil {
			return err
		}

		if err = changeBalance(ctx, tx, creditWalletQuery, to, amount); err != nil {
			return err
		}

		if err = insertTransaction(ctx, tx, &out); err != nil {
			return err
		}

		in := out
		in.Reference = entity.TransferInReference(reference)
		in.Type = entity.TransactionTypeTransferIn

		return insertTransaction(ctx, tx, &in)
	})

	return out, err
}

// FindByReference возвращает транзакцию по референсу.
func (r *Ledger) FindByReference(ctx context.Context, reference string) (entity.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, findTransactionQuery, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return t, inerr.ErrTransactionNotFound
	}

	return t, err
}

// FindAllByUserID возвращает историю операций пользователя. Данные отсортированы
// по времени создания от самых старых к самым новым.
func (r *Ledger) FindAllByUserID(ctx context.Context, userID int) ([]entity.Transaction, error) {
	return r.findAll(ctx, findUserTransactionsQuery, userID)
}

// FindPending возвращает транзакции через платёжные шлюзы, ожидающие подтверждения.
func (r *Ledger) FindPending(ctx context.Context) ([]entity.Transaction, error) {
	return r.findAll(ctx, findPendingTransactionsQuery)
}

func (r *Ledger) findAll(ctx context.Context, query string, args ...any) (txs []entity.Transaction, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txs = append(txs, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *Ledger) inTx(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err = f(tx); err != nil {
		_ = tx.Rollback()

		return err
	}

	return tx.Commit()
}

// payout зачисляет продавцу сумму платежа за вычетом комиссии. Зачисление
// попадает только в ledger_balance и остаётся заблокированным до подтверждения
// покупателем, комиссия фиксируется отдельной записью.
func payout(ctx context.Context, q querier, payment entity.Transaction) error {
	seller := *payment.RecipientID
	if net := payment.Net(); net.IsPositive() {
		if err := changeBalance(ctx, q, creditLedgerQuery, seller, net); err != nil {
			return err
		}

		err := insertTransaction(ctx, q, &entity.Transaction{
			Reference:   entity.PayoutReference(payment.Reference),
			Type:        entity.TransactionTypeTransferIn,
			Status:      entity.TransactionStatusLocked,
			Amount:      net,
			Fee:         decimal.Zero,
			Currency:    payment.Currency,
			SenderID:    payment.SenderID,
			RecipientID: &seller,
			ListingID:   payment.ListingID,
			Gateway:     payment.Gateway,
		})
		if err != nil {
			return err
		}
	}

	if !payment.Fee.IsPositive() {
		return nil
	}

	return insertTransaction(ctx, q, &entity.Transaction{
		Reference: entity.FeeReference(payment.Reference),
		Type:      entity.TransactionTypeCharge,
		Status:    entity.TransactionStatusCompleted,
		Amount:    payment.Fee,
		Fee:       decimal.Zero,
		Currency:  payment.Currency,
		SenderID:  &seller,
		ListingID: payment.ListingID,
		Gateway:   payment.Gateway,
	})
}

func insertTransaction(ctx context.Context, q querier, t *entity.Transaction) error {
	err := q.QueryRowContext(
		ctx,
		insertTransactionQuery,
		t.Reference,
		t.Type,
		t.Status,
		t.Amount,
		t.Fee,
		t.Currency,
		t.SenderID,
		t.RecipientID,
		t.ListingID,
		t.Gateway,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if isPgError(err, pgerrcode.UniqueViolation) {
		return inerr.ErrDuplicateReference
	}

	return err
}

func lockTransaction(ctx context.Context, q querier, reference string) (entity.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, lockTransactionQuery, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return t, inerr.ErrTransactionNotFound
	}

	return t, err
}

// setStatus меняет статус заблокированной транзакции t. Переходы из окончательных
// статусов запрещены, дополнительно их проверяет триггер check_status_transition.
func setStatus(ctx context.Context, q querier, t *entity.Transaction, status entity.TransactionStatus) error {
	if t.Status.IsFinal() {
		return inerr.ErrAlreadySettled
	}

	if !t.Status.CanTransition(status) {
		return inerr.ErrInvalidTransition
	}

	if err := q.QueryRowContext(ctx, updateTransactionStatusQuery, t.ID, status).Scan(&t.UpdatedAt); err != nil {
		if isPgError(err, pgerrcode.CheckViolation) {
			return inerr.ErrInvalidTransition
		}

		return err
	}

	t.Status = status

	return nil
}

func changeBalance(ctx context.Context, q querier, query string, userID int, amount decimal.Decimal) error {
	res, err := q.ExecContext(ctx, query, userID, amount)
	if err != nil {
		if isPgError(err, pgerrcode.CheckViolation) {
			return inerr.ErrInsufficientFunds
		}

		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return inerr.ErrWalletNotFound
	}

	return nil
}

func updateListing(ctx context.Context, q querier, query string, listingID int) error {
	res, err := q.ExecContext(ctx, query, listingID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return inerr.ErrListingUnavailable
	}

	return nil
}

// lockWallets блокирует кошельки пользователей a и b в порядке возрастания id
// и возвращает их валюты.
func lockWallets(ctx context.Context, tx *sql.Tx, a, b int) (map[int]string, error) {
	if a > b {
		a, b = b, a
	}

	rows, err := tx.QueryContext(ctx, lockWalletsQuery, a, b)
	if err != nil {
		return nil, err
	}

	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	currencies := make(map[int]string, 2)
	for rows.Next() {
		var (
			id       = 0
			currency = ""
		)
		if err = rows.Scan(&id, &currency); err != nil {
			return nil, err
		}

		currencies[id] = currency
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if _, ok := currencies[a]; !ok {
		return nil, inerr.ErrWalletNotFound
	}

	if _, ok := currencies[b]; !ok {
		return nil, inerr.ErrWalletNotFound
	}

	return currencies, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (entity.Transaction, error) {
	t := entity.Transaction{}
	err := row.Scan(
		&t.ID,
		&t.Reference,
		&t.Type,
		&t.Status,
		&t.Amount,
		&t.Fee,
		&t.Currency,
		&t.SenderID,
		&t.RecipientID,
		&t.ListingID,
		&t.Gateway,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	return t, err
}
