package auction

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"tg_auction/internal/domain/entity"
)

// Snapshot is the persisted read model of the current auction, consumed by
// the stream overlay. Stale by up to one refresh interval, which is fine for
// display purposes.
type Snapshot struct {
	Name          string          `json:"name"`
	LotNumber     string          `json:"lot_number"`
	Description   string          `json:"description"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Leader        string          `json:"leader,omitempty"`
	History       []SnapshotBid   `json:"history"`
	StartTime     *time.Time      `json:"start_time,omitempty"`
	Duration      int             `json:"duration"`
	Image         string          `json:"image,omitempty"`
	Logo          string          `json:"logo,omitempty"`
	NextName      string          `json:"next_name,omitempty"`
	NextLotNumber string          `json:"next_lot_number,omitempty"`
}

// SnapshotBid is one of the last history entries, newest first.
type SnapshotBid struct {
	Bidder   string          `json:"bidder"`
	Price    decimal.Decimal `json:"price"`
	PlacedAt time.Time       `json:"placed_at"`
}

const snapshotHistoryLen = 4

// BuildSnapshot derives the read model from the auction plus the next queued
// lot, if any.
func BuildSnapshot(a *entity.Auction, next *entity.Auction) Snapshot {
	s := Snapshot{
		Name:        a.Name,
		LotNumber:   a.LotNumber,
		Description: a.Description,
		FinalPrice:  a.Price,
		Leader:      a.Leader.DisplayName(),
		Duration:    int(a.Duration / time.Second),
		Image:       a.ImageURL,
		Logo:        a.LogoURL,
		History: lo.Map(a.LastBids(snapshotHistoryLen), func(b entity.Bid, _ int) SnapshotBid {
			return SnapshotBid{
				Bidder:   b.Bidder.DisplayName(),
				Price:    b.Price,
				PlacedAt: b.PlacedAt,
			}
		}),
	}

	if !a.StartTime.IsZero() {
		start := a.StartTime
		s.StartTime = &start
	}

	if next != nil {
		s.NextName = next.Name
		s.NextLotNumber = next.LotNumber
	}

	return s
}

// AuctionView is what the notifier renders for a running (or starting)
// auction.
type AuctionView struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Increment   decimal.Decimal
	Leader      string
	Remaining   time.Duration
	Duration    time.Duration
	Started     bool
	ImageURL    string
	LogoURL     string
}

// ResultView is the closed-auction rendering: winner announcement, seller
// notice and the final state of the auction message.
type ResultView struct {
	Title      string
	FinalPrice decimal.Decimal
	Winner     string
	ImageURL   string
	LogoURL    string
	NextTitle  string
}

// PanelView backs the seller control panel.
type PanelView struct {
	QueuePreview []string
	Current      *AuctionView
}

// OrderView carries everything the winner DM and the order channel need.
type OrderView struct {
	OrderNumber   string
	Title         string
	Price         decimal.Decimal
	Buyer         entity.BidderIdentity
	PaymentMethod string
	ImageURL      string
	ProductURL    string
}

func buildAuctionView(a *entity.Auction, now time.Time) AuctionView {
	return AuctionView{
		Title:       a.Title(),
		Description: a.Description,
		Price:       a.Price,
		Increment:   a.Increment,
		Leader:      a.Leader.DisplayName(),
		Remaining:   a.Remaining(now),
		Duration:    a.Duration,
		Started:     !a.StartTime.IsZero(),
		ImageURL:    a.ImageURL,
		LogoURL:     a.LogoURL,
	}
}

func buildResultView(a *entity.Auction, next *entity.Auction) ResultView {
	v := ResultView{
		Title:      a.Title(),
		FinalPrice: a.Price,
		Winner:     a.Leader.DisplayName(),
		ImageURL:   a.ImageURL,
		LogoURL:    a.LogoURL,
	}
	if next != nil {
		v.NextTitle = next.Title()
	}
	return v
}
