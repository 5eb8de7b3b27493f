package auction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tg_auction/internal/domain/entity"
)

// MessageRef identifies a published chat message so it can be edited later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// Announcer is the notification side of the chat platform. Implementations
// must tolerate edit-after-delete by republishing and must never block
// indefinitely: every call carries a context.
type Announcer interface {
	// PublishAuction posts the auction message with the bid button.
	PublishAuction(ctx context.Context, v AuctionView) (MessageRef, error)
	// EditAuction refreshes the auction message in place.
	EditAuction(ctx context.Context, ref MessageRef, v AuctionView) error
	// FinalizeAuction rewrites the auction message into its closed form and
	// drops the bid button.
	FinalizeAuction(ctx context.Context, ref MessageRef, v ResultView) error

	// AnnounceAuction and AnnounceResult maintain the public announcement
	// message (edit-or-republish).
	AnnounceAuction(ctx context.Context, v AuctionView, queuePreview []string) error
	AnnounceResult(ctx context.Context, v ResultView) error

	// RefreshPanel maintains the seller control panel.
	RefreshPanel(ctx context.Context, v PanelView) error
	// NotifySellerResult posts the end-of-auction notice to the seller channel.
	NotifySellerResult(ctx context.Context, v ResultView) error

	// PublishAuctionText posts a plain message to the auction channel
	// (congratulations, next-up notices).
	PublishAuctionText(ctx context.Context, text string) error

	// FinalizeBidReceipts rewrites all per-user bid receipts with the final
	// price once the auction closes.
	FinalizeBidReceipts(ctx context.Context, finalPrice decimal.Decimal)
}

// WinnerNotifier delivers the post-close confirmations. The handle is an
// opaque id the transport echoes back when the confirmation button is pressed.
type WinnerNotifier interface {
	// SendWinnerDM direct-messages the winner with the order summary and an OK
	// button. Fails for external-name winners who have no platform identity.
	SendWinnerDM(ctx context.Context, v OrderView, handle string) error
	// NotifyOrderChannel posts the order to the order channel with an admin
	// confirm button.
	NotifyOrderChannel(ctx context.Context, v OrderView, handle string) error
	// SendBuyerConfirmation tells the buyer their order was confirmed.
	SendBuyerConfirmation(ctx context.Context, buyer entity.BidderIdentity, orderNumber string) error
	// NotifySellerText posts a plain notice to the seller channel.
	NotifySellerText(ctx context.Context, text string) error
}

// AssetStore resolves lot imagery. May be slow; the controller calls it off
// its own goroutine.
type AssetStore interface {
	Lookup(ctx context.Context, name, lotNumber string) (imageURL, logoURL string, err error)
}

// SnapshotWriter persists the read model. Idempotent, overwrites the previous
// snapshot; the controller treats failures as log-and-continue.
type SnapshotWriter interface {
	Write(ctx context.Context, s Snapshot) error
}

// OrderStore hands out order numbers (monotonically increasing per
// year+month) and persists order records. Single writer: only the pipeline
// calls it, from the controller goroutine.
type OrderStore interface {
	NextOrderNumber(now time.Time) (string, error)
	SaveOrder(o entity.Order) error
}

// ProductCreator mirrors the commerce API. Nil when the shop integration is
// disabled.
type ProductCreator interface {
	// CreateAuctionProduct returns the product URL; errors degrade to an
	// empty URL at the call site.
	CreateAuctionProduct(ctx context.Context, v OrderView) (string, error)
}

// Archive is the optional closed-auction store. Nil when disabled.
type Archive interface {
	SaveClosed(ctx context.Context, a *entity.Auction, closedAt time.Time) error
}
