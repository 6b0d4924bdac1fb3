package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet хранит баланс пользователя. LedgerBalance включает средства, которые
// ещё недоступны для вывода, поэтому AvailableBalance никогда не превышает LedgerBalance.
type Wallet struct {
	UserID           int             `json:"user_id"`
	LedgerBalance    decimal.Decimal `json:"ledger_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	Currency         string          `json:"currency"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Locked возвращает сумму, зачисленную на кошелёк, но ещё не доступную для вывода.
func (w Wallet) Locked() decimal.Decimal {
	return w.LedgerBalance.Sub(w.AvailableBalance)
}

// FeeSettings описывает комиссию площадки, удерживаемую с продавца при оплате объявления.
type FeeSettings struct {
	Percent decimal.Decimal
	Flat    decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Compute возвращает комиссию для суммы amount, округлённую до копеек.
// Комиссия не бывает отрицательной и не превышает amount.
func (s FeeSettings) Compute(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(s.Percent).Div(hundred).Add(s.Flat).Round(2)
	if fee.IsNegative() {
		return decimal.Zero
	}

	if fee.GreaterThan(amount) {
		return amount
	}

	return fee
}
