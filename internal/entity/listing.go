package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Listing struct {
	ID        int             `json:"id"`
	SellerID  int             `json:"seller_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Status    ListingStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusReserved  ListingStatus = "reserved"
	ListingStatusSold      ListingStatus = "sold"
)
