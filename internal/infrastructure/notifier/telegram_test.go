package notifier

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tg_auction/internal/domain/entity"
	service "tg_auction/internal/domain/service/auction"
)

func TestRenderAuction(t *testing.T) {
	rq := require.New(t)

	v := service.AuctionView{
		Title:       "Charizard (12)",
		Description: "PSA 9 <slab>",
		Price:       decimal.RequireFromString("17.50"),
		Increment:   decimal.RequireFromString("2.50"),
		Leader:      "alice & co",
		Remaining:   12 * time.Second,
		Duration:    30 * time.Second,
		Started:     true,
		ImageURL:    "https://cdn.example/charizard_12.jpg",
	}

	text := renderAuction(v)
	rq.Contains(text, "<b>Charizard (12)</b>")
	rq.Contains(text, "17.50 PLN")
	rq.Contains(text, "2.50 PLN")
	rq.Contains(text, "Remaining: 12s")
	rq.Contains(text, "https://cdn.example/charizard_12.jpg")

	// User-supplied strings are HTML-escaped.
	rq.Contains(text, "alice &amp; co")
	rq.Contains(text, "&lt;slab&gt;")
	rq.NotContains(text, "<slab>")
}

func TestRenderAuctionNotStarted(t *testing.T) {
	rq := require.New(t)

	text := renderAuction(service.AuctionView{
		Title:    "Charizard (12)",
		Price:    decimal.NewFromInt(10),
		Duration: 30 * time.Second,
	})
	rq.Contains(text, "Duration: 30s")
	rq.Contains(text, "Leader: —")
}

func TestRenderResult(t *testing.T) {
	rq := require.New(t)

	text := renderResult(service.ResultView{
		Title:      "Charizard (12)",
		FinalPrice: decimal.RequireFromString("17.50"),
		Winner:     "alice",
		NextTitle:  "Pikachu (7)",
	})
	rq.Contains(text, "Auction finished: Charizard (12)")
	rq.Contains(text, "17.50 PLN")
	rq.Contains(text, "<b>alice</b>")
	rq.Contains(text, "Up next: Pikachu (7)")

	noWinner := renderResult(service.ResultView{
		Title:      "Charizard (12)",
		FinalPrice: decimal.NewFromInt(10),
	})
	rq.Contains(noWinner, "no winner")
}

func TestRenderPanel(t *testing.T) {
	rq := require.New(t)

	current := service.AuctionView{
		Title:     "Charizard (12)",
		Price:     decimal.RequireFromString("12.50"),
		Leader:    "alice",
		Remaining: 10 * time.Second,
		Started:   true,
	}

	text := renderPanel(service.PanelView{
		QueuePreview: []string{"Pikachu (7)", "Mewtwo (3)"},
		Current:      &current,
	})
	rq.Contains(text, "• Pikachu (7)")
	rq.Contains(text, "• Mewtwo (3)")
	rq.Contains(text, "Current: Charizard (12)")
	rq.Contains(text, "Remaining: 10s")

	empty := renderPanel(service.PanelView{})
	rq.Contains(empty, "—")
}

func TestRenderOrder(t *testing.T) {
	rq := require.New(t)

	text := renderOrder(service.OrderView{
		OrderNumber:   "AUC-2026-03-0001",
		Title:         "Charizard (12)",
		Price:         decimal.RequireFromString("17.50"),
		Buyer:         entity.PlatformUser(100, "alice"),
		PaymentMethod: "BLIK",
		ProductURL:    "https://shop.example/product/42",
	})
	rq.Contains(text, "Order AUC-2026-03-0001")
	rq.Contains(text, "Buyer: alice")
	rq.Contains(text, "Payment: BLIK")
	rq.Contains(text, "https://shop.example/product/42")
	rq.Contains(text, "awaiting confirmation")
}

func TestIgnorableEditError(t *testing.T) {
	rq := require.New(t)

	rq.True(ignorableEditError(nil))
	rq.True(ignorableEditError(errMessageNotModified{}))
	rq.False(ignorableEditError(errOther{}))
}

type errMessageNotModified struct{}

func (errMessageNotModified) Error() string {
	return "telego: 400 Bad Request: message is not modified"
}

type errOther struct{}

func (errOther) Error() string { return "telego: 400 Bad Request: message to edit not found" }
