package handler

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg_auction/internal/domain/entity"
	service "tg_auction/internal/domain/service/auction"
	"tg_auction/internal/infrastructure/notifier"
	"tg_auction/internal/transport/bot/view"
)

// OnBid handles the bid button under the auction message. The reply is a
// callback toast; the DM receipt is best effort and never blocks the answer.
func (h *Handler) OnBid(ctx *th.Context, query telego.CallbackQuery) error {
	bidder := entity.PlatformUser(query.From.ID, displayName(query.From))

	price, err := h.ctrl.PlaceBid(ctx, bidder, service.SourceButton)
	if err != nil {
		return ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
			WithText(errorText(err)).WithShowAlert())
	}

	if err := ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
		WithText(fmt.Sprintf(view.BidAcceptedAlert, price.StringFixed(2)))); err != nil {
		return err
	}

	if err := h.notifier.BidReceipt(ctx, bidder, price); err != nil {
		logger(ctx).Debug("bid receipt not delivered", "user_id", query.From.ID, "error", err)
	}
	return nil
}

// OnOrderConfirm handles the admin confirm button on the order channel.
func (h *Handler) OnOrderConfirm(ctx *th.Context, query telego.CallbackQuery) error {
	handle := strings.TrimPrefix(query.Data, notifier.CallbackOrderPrefix)

	if err := h.ctrl.ConfirmOrder(ctx, handle); err != nil {
		return ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
			WithText(errorText(err)).WithShowAlert())
	}

	// Drop the button so the order cannot be confirmed twice from the UI.
	if query.Message != nil {
		_, _ = ctx.Bot().EditMessageReplyMarkup(ctx, &telego.EditMessageReplyMarkupParams{
			ChatID:    tu.ID(query.Message.GetChat().ID),
			MessageID: query.Message.GetMessageID(),
		})
	}

	return ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
		WithText(view.OrderConfirmed))
}

// OnWinnerAck handles the OK button on the winner DM. The controller rejects
// handles addressed to someone else.
func (h *Handler) OnWinnerAck(ctx *th.Context, query telego.CallbackQuery) error {
	handle := strings.TrimPrefix(query.Data, notifier.CallbackWinnerPrefix)

	if err := h.ctrl.ConfirmReceipt(ctx, handle, query.From.ID); err != nil {
		return ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
			WithText(view.NotYourButton).WithShowAlert())
	}

	if query.Message != nil {
		_, _ = ctx.Bot().EditMessageReplyMarkup(ctx, &telego.EditMessageReplyMarkupParams{
			ChatID:    tu.ID(query.Message.GetChat().ID),
			MessageID: query.Message.GetMessageID(),
		})
	}

	return ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
		WithText(view.ReceiptAccepted))
}

func displayName(u telego.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
