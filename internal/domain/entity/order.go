package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the record produced for a won auction.
type Order struct {
	Number    string
	Buyer     BidderIdentity
	LotName   string
	LotNumber string
	Price     decimal.Decimal
	CreatedAt time.Time
}

func NewOrder(number string, a *Auction, now time.Time) Order {
	return Order{
		Number:    number,
		Buyer:     a.Leader,
		LotName:   a.Name,
		LotNumber: a.LotNumber,
		Price:     a.Price,
		CreatedAt: now,
	}
}
