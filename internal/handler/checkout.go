package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ivanpodgorny/walletgate/internal/entity"
)

type Checkout struct {
	processor     CheckoutProcessor
	confirmer     Confirmer
	authenticator IdentityProvider
	validator     Validator
}

type CheckoutProcessor interface {
	Checkout(ctx context.Context, buyerID, listingID int, option, reference string) (entity.CheckoutResult, error)
}

type Confirmer interface {
	Release(ctx context.Context, buyerID int, reference string) (entity.Transaction, error)
}

func NewCheckout(p CheckoutProcessor, c Confirmer, a IdentityProvider, v Validator) *Checkout {
	return &Checkout{
		processor:     p,
		confirmer:     c,
		authenticator: a,
		validator:     v,
	}
}

// Checkout оплачивает объявление выбранным способом. Возвращает ответ с кодом 200,
// если оплата проведена сразу, 201 со ссылкой на страницу оплаты шлюза и 202,
// если платёж ожидает подтверждения. Отклонённый шлюзом платёж возвращается с кодом 402.
func (h *Checkout) Checkout(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		notFound(w)

		return
	}

	req := CheckoutRequest{}
	if err := readJSONBodyAndValidate(r.Context(), &req, w, r, h.validator); err != nil {
		badRequest(w)

		return
	}

	userID, _ := h.authenticator.UserIdentifier(r)

	res, err := h.processor.Checkout(r.Context(), userID, id, req.PaymentOption, req.PaymentReference)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, res, checkoutStatus(res))
}

// Confirm подтверждает получение оплаченного объявления покупателем, после чего
// выплата продавцу становится доступной для вывода.
func (h *Checkout) Confirm(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		notFound(w)

		return
	}

	userID, _ := h.authenticator.UserIdentifier(r)

	tx, err := h.confirmer.Release(r.Context(), userID, reference)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, tx, http.StatusOK)
}

func checkoutStatus(res entity.CheckoutResult) int {
	switch {
	case res.Status == entity.TransactionStatusFailed:
		return http.StatusPaymentRequired
	case res.Link != "":
		return http.StatusCreated
	case res.Status == entity.TransactionStatusPending:
		return http.StatusAccepted
	default:
		return http.StatusOK
	}
}
