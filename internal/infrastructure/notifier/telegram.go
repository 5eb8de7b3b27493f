package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/shopspring/decimal"

	"tg_auction/internal/config"
	"tg_auction/internal/domain"
	"tg_auction/internal/domain/entity"
	service "tg_auction/internal/domain/service/auction"
	"tg_auction/pkg/errcodes"
)

// Callback data prefixes shared with the bot transport.
const (
	CallbackBid          = "bid"
	CallbackOrderPrefix  = "order:"
	CallbackWinnerPrefix = "ok:"
)

// TelegramNotifier renders auction state into the configured channels. The
// announcement and panel messages are edited in place and republished when
// Telegram reports them gone; per-channel message ids live here, guarded by a
// mutex because calls arrive from the controller and transport goroutines.
type TelegramNotifier struct {
	bot *telego.Bot
	cfg config.Bot

	mu          sync.Mutex
	announceMsg int
	panelMsg    int
	receipts    map[int64]int
}

func NewTelegramNotifier(bot *telego.Bot, cfg config.Bot) *TelegramNotifier {
	return &TelegramNotifier{
		bot:      bot,
		cfg:      cfg,
		receipts: make(map[int64]int),
	}
}

func bidKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔼 BID").WithCallbackData(CallbackBid),
		),
	)
}

func (n *TelegramNotifier) PublishAuction(ctx context.Context, v service.AuctionView) (service.MessageRef, error) {
	msg := tu.Message(tu.ID(n.cfg.AuctionChatID), renderAuction(v)).
		WithParseMode(telego.ModeHTML).
		WithReplyMarkup(bidKeyboard())

	sent, err := n.bot.SendMessage(ctx, msg)
	if err != nil {
		return service.MessageRef{}, fmt.Errorf("send auction message: %w", err)
	}

	return service.MessageRef{ChatID: n.cfg.AuctionChatID, MessageID: sent.MessageID}, nil
}

func (n *TelegramNotifier) EditAuction(ctx context.Context, ref service.MessageRef, v service.AuctionView) error {
	_, err := n.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      telego.ChatID{ID: ref.ChatID},
		MessageID:   ref.MessageID,
		Text:        renderAuction(v),
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: bidKeyboard(),
	})
	if ignorableEditError(err) {
		return nil
	}
	return err
}

func (n *TelegramNotifier) FinalizeAuction(ctx context.Context, ref service.MessageRef, v service.ResultView) error {
	_, err := n.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: ref.ChatID},
		MessageID: ref.MessageID,
		Text:      renderResult(v),
		ParseMode: telego.ModeHTML,
	})
	if ignorableEditError(err) {
		return nil
	}
	return err
}

func (n *TelegramNotifier) AnnounceAuction(ctx context.Context, v service.AuctionView, queuePreview []string) error {
	if n.cfg.AnnounceChatID == 0 {
		return nil
	}

	text := renderAnnouncement(v, queuePreview)
	return n.editOrPublish(ctx, n.cfg.AnnounceChatID, &n.announceMsg, text)
}

func (n *TelegramNotifier) AnnounceResult(ctx context.Context, v service.ResultView) error {
	if n.cfg.AnnounceChatID == 0 {
		return nil
	}

	return n.editOrPublish(ctx, n.cfg.AnnounceChatID, &n.announceMsg, renderResult(v))
}

func (n *TelegramNotifier) RefreshPanel(ctx context.Context, v service.PanelView) error {
	if n.cfg.SellerChatID == 0 {
		return nil
	}

	return n.editOrPublish(ctx, n.cfg.SellerChatID, &n.panelMsg, renderPanel(v))
}

func (n *TelegramNotifier) NotifySellerResult(ctx context.Context, v service.ResultView) error {
	if n.cfg.SellerChatID == 0 {
		return nil
	}

	msg := tu.Message(tu.ID(n.cfg.SellerChatID), renderSellerResult(v)).
		WithParseMode(telego.ModeHTML)

	_, err := n.bot.SendMessage(ctx, msg)
	return err
}

func (n *TelegramNotifier) PublishAuctionText(ctx context.Context, text string) error {
	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(n.cfg.AuctionChatID), text))
	return err
}

// BidReceipt direct-messages the bidder with their current bid, editing the
// previous receipt instead of stacking new messages. External (live-chat)
// bidders have no DM target and are skipped.
func (n *TelegramNotifier) BidReceipt(ctx context.Context, bidder entity.BidderIdentity, amount decimal.Decimal) error {
	if bidder.Kind != entity.BidderKindPlatformUser {
		return nil
	}

	text := fmt.Sprintf("💸 Your bid: <b>%s PLN</b>", amount.StringFixed(2))

	n.mu.Lock()
	msgID := n.receipts[bidder.ID]
	n.mu.Unlock()

	if msgID != 0 {
		_, err := n.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    telego.ChatID{ID: bidder.ID},
			MessageID: msgID,
			Text:      text,
			ParseMode: telego.ModeHTML,
		})
		if err == nil || ignorableEditError(err) {
			return nil
		}
	}

	sent, err := n.bot.SendMessage(ctx,
		tu.Message(tu.ID(bidder.ID), text).WithParseMode(telego.ModeHTML))
	if err != nil {
		return fmt.Errorf("send bid receipt: %w", err)
	}

	n.mu.Lock()
	n.receipts[bidder.ID] = sent.MessageID
	n.mu.Unlock()

	return nil
}

func (n *TelegramNotifier) FinalizeBidReceipts(ctx context.Context, finalPrice decimal.Decimal) {
	n.mu.Lock()
	receipts := n.receipts
	n.receipts = make(map[int64]int)
	n.mu.Unlock()

	text := fmt.Sprintf("🏁 Auction finished. Final price: <b>%s PLN</b>", finalPrice.StringFixed(2))

	for userID, msgID := range receipts {
		_, err := n.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    telego.ChatID{ID: userID},
			MessageID: msgID,
			Text:      text,
			ParseMode: telego.ModeHTML,
		})
		if err != nil && !ignorableEditError(err) {
			logger(ctx).Warn("finalize bid receipt", "user_id", userID, "error", err)
		}
	}
}

func (n *TelegramNotifier) SendWinnerDM(ctx context.Context, v service.OrderView, handle string) error {
	if v.Buyer.Kind != entity.BidderKindPlatformUser {
		return domain.NewError(errcodes.NotFound, "winner has no platform identity, DM skipped")
	}

	text := fmt.Sprintf(
		"🎉 Congratulations! You won <b>%s</b> for <b>%s PLN</b>.\nOrder number: <code>%s</code>",
		html.EscapeString(v.Title),
		v.Price.StringFixed(2),
		html.EscapeString(v.OrderNumber),
	)
	if v.ImageURL != "" {
		text += "\n" + v.ImageURL
	}
	if v.ProductURL != "" {
		text += "\n" + v.ProductURL
	}

	msg := tu.Message(tu.ID(v.Buyer.ID), text).
		WithParseMode(telego.ModeHTML).
		WithReplyMarkup(tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("✅ OK").WithCallbackData(CallbackWinnerPrefix + handle),
			),
		))

	if _, err := n.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send winner DM: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) NotifyOrderChannel(ctx context.Context, v service.OrderView, handle string) error {
	if n.cfg.OrderChatID == 0 {
		return nil
	}

	msg := tu.Message(tu.ID(n.cfg.OrderChatID), renderOrder(v)).
		WithParseMode(telego.ModeHTML).
		WithReplyMarkup(tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("✅ Confirm").WithCallbackData(CallbackOrderPrefix + handle),
			),
		))

	if _, err := n.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send order notice: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) SendBuyerConfirmation(ctx context.Context, buyer entity.BidderIdentity, orderNumber string) error {
	if buyer.Kind != entity.BidderKindPlatformUser {
		return domain.NewError(errcodes.NotFound, "buyer has no platform identity")
	}

	text := fmt.Sprintf(
		"✅ Your order %s is confirmed.\nThe lot ships soon. Thanks for bidding!",
		orderNumber,
	)

	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(buyer.ID), text))
	return err
}

func (n *TelegramNotifier) NotifySellerText(ctx context.Context, text string) error {
	if n.cfg.SellerChatID == 0 {
		return nil
	}

	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(n.cfg.SellerChatID), text))
	return err
}

// editOrPublish edits the remembered message or publishes a fresh one when
// there is none yet or Telegram reports it missing.
func (n *TelegramNotifier) editOrPublish(ctx context.Context, chatID int64, msgID *int, text string) error {
	n.mu.Lock()
	current := *msgID
	n.mu.Unlock()

	if current != 0 {
		_, err := n.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    telego.ChatID{ID: chatID},
			MessageID: current,
			Text:      text,
			ParseMode: telego.ModeHTML,
		})
		if err == nil || ignorableEditError(err) {
			return nil
		}
	}

	sent, err := n.bot.SendMessage(ctx,
		tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	n.mu.Lock()
	*msgID = sent.MessageID
	n.mu.Unlock()

	return nil
}

// ignorableEditError filters the edit failures that do not matter: editing to
// identical content, or nil error in the first place.
func ignorableEditError(err error) bool {
	if err == nil {
		return true
	}
	return strings.Contains(err.Error(), "message is not modified")
}

// --- rendering ---

func renderAuction(v service.AuctionView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎴 <b>%s</b>\n", html.EscapeString(v.Title))
	if v.Description != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(v.Description))
	}
	fmt.Fprintf(&b, "\n💸 Price: <b>%s PLN</b>\n", v.Price.StringFixed(2))
	fmt.Fprintf(&b, "➕ Increment: %s PLN\n", v.Increment.StringFixed(2))

	leader := v.Leader
	if leader == "" {
		leader = "—"
	}
	fmt.Fprintf(&b, "🏆 Leader: %s\n", html.EscapeString(leader))

	if v.Started {
		fmt.Fprintf(&b, "⏳ Remaining: %ds", int(v.Remaining/time.Second))
	} else {
		fmt.Fprintf(&b, "⏳ Duration: %ds", int(v.Duration/time.Second))
	}

	if v.ImageURL != "" {
		fmt.Fprintf(&b, "\n%s", v.ImageURL)
	}

	return b.String()
}

func renderResult(v service.ResultView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "✅ <b>Auction finished: %s</b>\n", html.EscapeString(v.Title))
	fmt.Fprintf(&b, "💵 Final price: <b>%s PLN</b>\n", v.FinalPrice.StringFixed(2))

	winner := v.Winner
	if winner == "" {
		winner = "no winner"
	}
	fmt.Fprintf(&b, "🏆 Winner: <b>%s</b>", html.EscapeString(winner))

	if v.NextTitle != "" {
		fmt.Fprintf(&b, "\n\nUp next: %s", html.EscapeString(v.NextTitle))
	}

	return b.String()
}

func renderAnnouncement(v service.AuctionView, queuePreview []string) string {
	var b strings.Builder

	b.WriteString("🔔 <b>Live auction</b>\n\n")
	fmt.Fprintf(&b, "Current lot: %s\n", html.EscapeString(v.Title))
	fmt.Fprintf(&b, "Price: %s PLN\n", v.Price.StringFixed(2))

	leader := v.Leader
	if leader == "" {
		leader = "—"
	}
	fmt.Fprintf(&b, "Leader: %s\n", html.EscapeString(leader))

	if v.Started {
		fmt.Fprintf(&b, "Ends in: %ds\n", int(v.Remaining/time.Second))
	}

	b.WriteString("\nIn the queue:\n")
	b.WriteString(renderQueue(queuePreview))

	return b.String()
}

func renderPanel(v service.PanelView) string {
	var b strings.Builder

	b.WriteString("📊 <b>Auction panel</b>\n\nIn the queue:\n")
	b.WriteString(renderQueue(v.QueuePreview))

	if v.Current != nil {
		fmt.Fprintf(&b, "\nCurrent: %s\nPrice: %s PLN\n",
			html.EscapeString(v.Current.Title),
			v.Current.Price.StringFixed(2),
		)
		if v.Current.Leader != "" {
			fmt.Fprintf(&b, "Leader: %s\n", html.EscapeString(v.Current.Leader))
		}
		if v.Current.Started {
			fmt.Fprintf(&b, "Remaining: %ds\n", int(v.Current.Remaining/time.Second))
		}
	}

	return b.String()
}

func renderSellerResult(v service.ResultView) string {
	winner := v.Winner
	if winner == "" {
		winner = "no winner"
	}

	return fmt.Sprintf(
		"Auction ended\nLot: %s\nPrice: %s PLN\nWinner: %s",
		html.EscapeString(v.Title),
		v.FinalPrice.StringFixed(2),
		html.EscapeString(winner),
	)
}

func renderOrder(v service.OrderView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📦 <b>Order %s</b>\n", html.EscapeString(v.OrderNumber))
	fmt.Fprintf(&b, "%s\n", html.EscapeString(v.Title))
	fmt.Fprintf(&b, "Price: %s PLN\n", v.Price.StringFixed(2))
	fmt.Fprintf(&b, "Buyer: %s\n", html.EscapeString(v.Buyer.DisplayName()))
	if v.PaymentMethod != "" {
		fmt.Fprintf(&b, "Payment: %s\n", html.EscapeString(v.PaymentMethod))
	}
	if v.ProductURL != "" {
		fmt.Fprintf(&b, "%s\n", v.ProductURL)
	}
	b.WriteString("Status: awaiting confirmation")

	return b.String()
}

func renderQueue(preview []string) string {
	if len(preview) == 0 {
		return "—"
	}

	var b strings.Builder
	for _, title := range preview {
		fmt.Fprintf(&b, "• %s\n", html.EscapeString(title))
	}
	return strings.TrimRight(b.String(), "\n")
}
