package persistence

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"tg_auction/internal/domain/entity"
)

type resultSchema struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	LotNumber   string          `db:"lot_number"`
	Description string          `db:"description"`
	FinalPrice  decimal.Decimal `db:"final_price"`
	Leader      sql.NullString  `db:"leader"`
	StartedAt   sql.NullTime    `db:"started_at"`
	ClosedAt    time.Time       `db:"closed_at"`
	DurationSec int             `db:"duration_seconds"`
	OrderNumber sql.NullString  `db:"order_number"`
	ProductURL  sql.NullString  `db:"product_url"`
}

type bidSchema struct {
	ResultID int64           `db:"result_id"`
	Bidder   string          `db:"bidder"`
	Price    decimal.Decimal `db:"price"`
	PlacedAt time.Time       `db:"placed_at"`
}

func toResultSchema(a *entity.Auction, closedAt time.Time) resultSchema {
	s := resultSchema{
		Name:        a.Name,
		LotNumber:   a.LotNumber,
		Description: a.Description,
		FinalPrice:  a.Price,
		ClosedAt:    closedAt,
		DurationSec: int(a.Duration / time.Second),
	}

	if !a.Leader.IsZero() {
		s.Leader = sql.NullString{String: a.Leader.DisplayName(), Valid: true}
	}
	if !a.StartTime.IsZero() {
		s.StartedAt = sql.NullTime{Time: a.StartTime, Valid: true}
	}
	if a.OrderNumber != "" {
		s.OrderNumber = sql.NullString{String: a.OrderNumber, Valid: true}
	}
	if a.ProductURL != "" {
		s.ProductURL = sql.NullString{String: a.ProductURL, Valid: true}
	}

	return s
}

func toBidSchemas(resultID int64, bids []entity.Bid) []bidSchema {
	out := make([]bidSchema, 0, len(bids))
	for _, b := range bids {
		out = append(out, bidSchema{
			ResultID: resultID,
			Bidder:   b.Bidder.DisplayName(),
			Price:    b.Price,
			PlacedAt: b.PlacedAt,
		})
	}
	return out
}
