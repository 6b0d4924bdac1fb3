package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
)

type Listing struct {
	db *sql.DB
}

const (
	insertListingQuery = "INSERT INTO listings (seller_id, title, price, currency) VALUES ($1, $2, $3, $4) RETURNING id, status, created_at"
	findListingQuery   = "SELECT id, seller_id, title, price, currency, status, created_at FROM listings WHERE id = $1"
)

func NewListing(db *sql.DB) *Listing {
	return &Listing{db: db}
}

// Create сохраняет объявление и заполняет его id, статус и время создания.
func (r *Listing) Create(ctx context.Context, l *entity.Listing) error {
	return r.db.QueryRowContext(ctx, insertListingQuery, l.SellerID, l.Title, l.Price, l.Currency).
		Scan(&l.ID, &l.Status, &l.CreatedAt)
}

func (r *Listing) FindByID(ctx context.Context, id int) (entity.Listing, error) {
	l := entity.Listing{}
	err := r.db.QueryRowContext(ctx, findListingQuery, id).
		Scan(&l.ID, &l.SellerID, &l.Title, &l.Price, &l.Currency, &l.Status, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return l, inerr.ErrListingNotFound
	}

	return l, err
}
