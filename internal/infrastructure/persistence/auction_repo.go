package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tg_auction/internal/domain"
	"tg_auction/internal/domain/entity"
	"tg_auction/pkg/errcodes"
)

// AuctionRepository archives closed auctions and their bid history. It is an
// optional collaborator: the pipeline tolerates its absence and its failures.
type AuctionRepository struct {
	db *sqlx.DB
}

func NewAuctionRepository(db *sqlx.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

func (r *AuctionRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// SaveClosed stores the result row and the full bid history atomically.
func (r *AuctionRepository) SaveClosed(ctx context.Context, a *entity.Auction, closedAt time.Time) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		result := toResultSchema(a, closedAt)

		const insertResult = `
			INSERT INTO auction_results
				(name, lot_number, description, final_price, leader,
				 started_at, closed_at, duration_seconds, order_number, product_url)
			VALUES
				(:name, :lot_number, :description, :final_price, :leader,
				 :started_at, :closed_at, :duration_seconds, :order_number, :product_url)
			RETURNING id`

		rows, err := tx.NamedQuery(insertResult, result)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to insert result")
		}

		var resultID int64
		if rows.Next() {
			if err := rows.Scan(&resultID); err != nil {
				rows.Close()
				return domain.WrapError(err, errcodes.InternalServerError, "failed to scan result id")
			}
		}
		rows.Close()

		const insertBid = `
			INSERT INTO auction_bids (result_id, bidder, price, placed_at)
			VALUES (:result_id, :bidder, :price, :placed_at)`

		for _, bid := range toBidSchemas(resultID, a.History) {
			if _, err := tx.NamedExecContext(ctx, insertBid, bid); err != nil {
				return domain.WrapError(err, errcodes.InternalServerError, "failed to insert bid")
			}
		}

		return nil
	})
}

// CountClosed reports how many auctions the archive holds.
func (r *AuctionRepository) CountClosed(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM auction_results`); err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to count results")
	}
	return count, nil
}
