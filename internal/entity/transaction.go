package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          int               `json:"-"`
	Reference   string            `json:"reference"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Amount      decimal.Decimal   `json:"amount"`
	Fee         decimal.Decimal   `json:"fee"`
	Currency    string            `json:"currency"`
	SenderID    *int              `json:"sender_id,omitempty"`
	RecipientID *int              `json:"recipient_id,omitempty"`
	ListingID   *int              `json:"listing_id,omitempty"`
	Gateway     *string           `json:"gateway,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Net возвращает сумму, причитающуюся получателю после удержания комиссии.
func (t Transaction) Net() decimal.Decimal {
	return t.Amount.Sub(t.Fee)
}

type TransactionType string

const (
	TransactionTypePayment     TransactionType = "payment"
	TransactionTypeCharge      TransactionType = "charge"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdraw    TransactionType = "withdraw"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusLocked    TransactionStatus = "locked"
)

var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending: {TransactionStatusLocked, TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusLocked:  {TransactionStatusCompleted, TransactionStatusFailed},
}

// CanTransition сообщает, допустим ли переход из статуса s в статус to.
// Статусы меняются только вперёд: завершённая или неуспешная транзакция не меняет статус.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}

	return false
}

// IsFinal сообщает, что из статуса s нет допустимых переходов.
func (s TransactionStatus) IsFinal() bool {
	return len(transitions[s]) == 0
}

// PayoutReference возвращает референс зачисления продавцу по платежу ref.
func PayoutReference(ref string) string {
	return ref + "-payout"
}

// FeeReference возвращает референс удержания комиссии по платежу ref.
func FeeReference(ref string) string {
	return ref + "-fee"
}

// TransferInReference возвращает референс входящей части перевода ref.
func TransferInReference(ref string) string {
	return ref + "-in"
}
