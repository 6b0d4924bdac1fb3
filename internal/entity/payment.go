package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentOptionWallet означает оплату объявления с кошелька покупателя.
// Любой другой вариант оплаты считается именем платёжного шлюза.
const PaymentOptionWallet = "wallet"

type ChargeRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	RedirectURL string
	Title       string
}

type Charge struct {
	Reference string `json:"reference"`
	Link      string `json:"link"`
}

type VerificationStatus string

const (
	VerificationStatusSuccessful VerificationStatus = "successful"
	VerificationStatusFailed     VerificationStatus = "failed"
	VerificationStatusPending    VerificationStatus = "pending"
)

// Verification содержит подтверждённые шлюзом данные о платеже.
type Verification struct {
	Reference  string
	ProviderID string
	Status     VerificationStatus
	Amount     decimal.Decimal
	Currency   string
}

// IsFinal сообщает, что шлюз вернул окончательный результат платежа.
func (v Verification) IsFinal() bool {
	return v.Status == VerificationStatusSuccessful || v.Status == VerificationStatusFailed
}

type WebhookEvent struct {
	ID        string
	Type      string
	Reference string
	Status    VerificationStatus
	Amount    decimal.Decimal
	Currency  string
}

type VerificationJob struct {
	Gateway   string
	Reference string
}

type VerificationResult struct {
	Gateway      string
	Verification Verification
}

// SettlementEvent публикуется после того, как платёж получил окончательный статус.
type SettlementEvent struct {
	Reference  string            `json:"reference"`
	Type       TransactionType   `json:"type"`
	Status     TransactionStatus `json:"status"`
	Amount     decimal.Decimal   `json:"amount"`
	Fee        decimal.Decimal   `json:"fee"`
	Currency   string            `json:"currency"`
	Gateway    string            `json:"gateway"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewSettlementEvent(tx Transaction, gateway string, at time.Time) SettlementEvent {
	return SettlementEvent{
		Reference:  tx.Reference,
		Type:       tx.Type,
		Status:     tx.Status,
		Amount:     tx.Amount,
		Fee:        tx.Fee,
		Currency:   tx.Currency,
		Gateway:    gateway,
		OccurredAt: at,
	}
}

type CheckoutResult struct {
	Reference string            `json:"reference"`
	Status    TransactionStatus `json:"status"`
	Link      string            `json:"link,omitempty"`
}

type WebhookOutcome string

const (
	WebhookOutcomeAccepted  WebhookOutcome = "accepted"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	WebhookOutcomeIgnored   WebhookOutcome = "ignored"
)

// WebhookResult описывает результат обработки уведомления платёжного шлюза.
type WebhookResult struct {
	Outcome   WebhookOutcome    `json:"result"`
	Reference string            `json:"reference,omitempty"`
	Status    TransactionStatus `json:"status,omitempty"`
}
