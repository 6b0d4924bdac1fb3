package handler

import (
	"context"
	"net/http"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	processor     WalletProcessor
	authenticator IdentityProvider
	validator     Validator
}

type WalletProcessor interface {
	Get(ctx context.Context, userID int) (entity.Wallet, error)
	Transactions(ctx context.Context, userID int) ([]entity.Transaction, error)
	Deposit(ctx context.Context, userID int, amount decimal.Decimal) (entity.Charge, error)
	Withdraw(ctx context.Context, userID int, amount decimal.Decimal) (entity.Transaction, error)
	Transfer(ctx context.Context, from, to int, amount decimal.Decimal) (entity.Transaction, error)
}

func NewWallet(p WalletProcessor, a IdentityProvider, v Validator) *Wallet {
	return &Wallet{
		processor:     p,
		authenticator: a,
		validator:     v,
	}
}

// Get возвращает баланс кошелька пользователя.
func (h *Wallet) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.authenticator.UserIdentifier(r)

	wallet, err := h.processor.Get(r.Context(), userID)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, wallet, http.StatusOK)
}

// Transactions возвращает историю операций по кошельку. Если операций нет,
// возвращает ответ с кодом 204.
func (h *Wallet) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.authenticator.UserIdentifier(r)

	txs, err := h.processor.Transactions(r.Context(), userID)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	if len(txs) == 0 {
		w.WriteHeader(http.StatusNoContent)

		return
	}

	responseAsJSON(w, txs, http.StatusOK)
}

// Deposit создаёт платёж на пополнение кошелька и возвращает ссылку на страницу
// оплаты шлюза с кодом 201. Баланс пополняется после подтверждения платежа шлюзом.
func (h *Wallet) Deposit(w http.ResponseWriter, r *http.Request) {
	req := AmountRequest{}
	if err := readJSONBodyAndValidate(r.Context(), &req, w, r, h.validator); err != nil {
		badRequest(w)

		return
	}

	userID, _ := h.authenticator.UserIdentifier(r)

	charge, err := h.processor.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, charge, http.StatusCreated)
}

// Withdraw списывает средства с кошелька. При нехватке доступных средств
// возвращает ответ с кодом 402.
func (h *Wallet) Withdraw(w http.ResponseWriter, r *http.Request) {
	req := AmountRequest{}
	if err := readJSONBodyAndValidate(r.Context(), &req, w, r, h.validator); err != nil {
		badRequest(w)

		return
	}

	userID, _ := h.authenticator.UserIdentifier(r)

	tx, err := h.processor.Withdraw(r.Context(), userID, req.Amount)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, tx, http.StatusOK)
}

// Transfer переводит средства на кошелёк другого пользователя.
func (h *Wallet) Transfer(w http.ResponseWriter, r *http.Request) {
	req := TransferRequest{}
	if err := readJSONBodyAndValidate(r.Context(), &req, w, r, h.validator); err != nil {
		badRequest(w)

		return
	}

	userID, _ := h.authenticator.UserIdentifier(r)

	tx, err := h.processor.Transfer(r.Context(), userID, req.RecipientID, req.Amount)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, tx, http.StatusOK)
}
