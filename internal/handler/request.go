package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
)

// maxBodySize ограничивает размер тела запроса, в том числе уведомлений платёжных шлюзов.
const maxBodySize = 1 << 20

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=32"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0,cents"`
}

type TransferRequest struct {
	RecipientID int             `json:"recipient_id" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0,cents"`
}

type ListingRequest struct {
	Title    string          `json:"title" validate:"required,max=200"`
	Price    decimal.Decimal `json:"price" validate:"gt=0,cents"`
	Currency string          `json:"currency" validate:"omitempty,currency"`
}

type CheckoutRequest struct {
	PaymentOption    string `json:"payment_option" validate:"required,max=50"`
	PaymentReference string `json:"payment_reference" validate:"omitempty,max=100"`
}

type IdentityProvider interface {
	UserIdentifier(*http.Request) (int, error)
}

type Validator interface {
	Struct(ctx context.Context, s any) error
	Var(ctx context.Context, field any, tag string) error
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
}

func readJSONBody(v any, w http.ResponseWriter, r *http.Request) error {
	b, err := readBody(w, r)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

func readJSONBodyAndValidate(ctx context.Context, v any, w http.ResponseWriter, r *http.Request, validator Validator) error {
	if err := readJSONBody(v, w, r); err != nil {
		return err
	}

	return validator.Struct(ctx, v)
}
