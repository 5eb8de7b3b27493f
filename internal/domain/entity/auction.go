package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Auction is a single lot under the hammer. It is mutated only from the
// lifecycle controller goroutine: AcceptBid and the post-close field writes
// never run concurrently.
type Auction struct {
	Name        string
	LotNumber   string
	Description string

	Price     decimal.Decimal // current price, start price until the first bid
	Increment decimal.Decimal
	Duration  time.Duration

	History []Bid
	Leader  BidderIdentity // zero value while nobody bid

	StartTime time.Time // zero until Starting -> Active

	ImageURL string
	LogoURL  string

	// Filled by the side-effect pipeline after close.
	OrderNumber   string
	PaymentMethod string
	ProductURL    string
}

// Bid is one accepted bid, appended to the auction history.
type Bid struct {
	Bidder   BidderIdentity
	Price    decimal.Decimal
	PlacedAt time.Time
}

// AcceptBid raises the price by the increment and makes bidder the leader.
// A bidder may outbid themselves; there is no reserve price.
func (a *Auction) AcceptBid(bidder BidderIdentity, now time.Time) {
	a.Price = a.Price.Add(a.Increment)
	a.History = append(a.History, Bid{
		Bidder:   bidder,
		Price:    a.Price,
		PlacedAt: now,
	})
	a.Leader = bidder
}

// EndTime is derived from the start timestamp; zero before the auction starts.
func (a *Auction) EndTime() time.Time {
	if a.StartTime.IsZero() {
		return time.Time{}
	}
	return a.StartTime.Add(a.Duration)
}

// IsActive reports whether the auction is started and not yet past its end.
func (a *Auction) IsActive(now time.Time) bool {
	return !a.StartTime.IsZero() && now.Before(a.EndTime())
}

// Remaining returns the time left until expiry, clamped at zero. Before the
// start it returns the full duration.
func (a *Auction) Remaining(now time.Time) time.Duration {
	if a.StartTime.IsZero() {
		return a.Duration
	}

	left := a.EndTime().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// LastBids returns up to n most recent history entries, newest first.
func (a *Auction) LastBids(n int) []Bid {
	if n > len(a.History) {
		n = len(a.History)
	}

	out := make([]Bid, 0, n)
	for i := len(a.History) - 1; i >= len(a.History)-n; i-- {
		out = append(out, a.History[i])
	}
	return out
}

// Title renders the "Name (LotNumber)" form used across messages and orders.
func (a *Auction) Title() string {
	return a.Name + " (" + a.LotNumber + ")"
}

// ParseAmount parses a price or increment accepting both comma and dot as the
// decimal separator, the way seller-entered data arrives.
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}
