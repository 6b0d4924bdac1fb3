package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ivanpodgorny/walletgate/internal/entity"
)

type Listing struct {
	repository      ListingRepository
	authenticator   IdentityProvider
	validator       Validator
	defaultCurrency string
}

type ListingRepository interface {
	Create(ctx context.Context, l *entity.Listing) error
	FindByID(ctx context.Context, id int) (entity.Listing, error)
}

func NewListing(r ListingRepository, a IdentityProvider, v Validator, currency string) *Listing {
	return &Listing{
		repository:      r,
		authenticator:   a,
		validator:       v,
		defaultCurrency: currency,
	}
}

// Create размещает объявление от имени пользователя. Если валюта не передана,
// используется валюта площадки.
func (h *Listing) Create(w http.ResponseWriter, r *http.Request) {
	req := ListingRequest{}
	if err := readJSONBodyAndValidate(r.Context(), &req, w, r, h.validator); err != nil {
		badRequest(w)

		return
	}

	userID, _ := h.authenticator.UserIdentifier(r)
	l := &entity.Listing{
		SellerID: userID,
		Title:    req.Title,
		Price:    req.Price,
		Currency: req.Currency,
	}
	if l.Currency == "" {
		l.Currency = h.defaultCurrency
	}

	if err := h.repository.Create(r.Context(), l); err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, l, http.StatusCreated)
}

func (h *Listing) Get(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		notFound(w)

		return
	}

	l, err := h.repository.FindByID(r.Context(), id)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, l, http.StatusOK)
}

func listingID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}
