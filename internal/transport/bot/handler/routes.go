package handler

import (
	th "github.com/mymmrac/telego/telegohandler"

	"tg_auction/internal/infrastructure/notifier"
	"tg_auction/internal/transport/bot/middleware"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	adminGroup := bh.Group(th.AnyMessage())
	adminGroup.Use(middleware.AdminOnly(adminID))

	adminGroup.HandleMessage(h.OnStart, th.CommandEqual("start"))
	adminGroup.HandleMessage(h.OnAdd, th.CommandEqual("add"))
	adminGroup.HandleMessage(h.OnAuction, th.CommandEqual("auction"))
	adminGroup.HandleMessage(h.OnQueue, th.CommandEqual("queue"))
	adminGroup.HandleMessage(h.OnPause, th.CommandEqual("pause"))
	adminGroup.HandleMessage(h.OnResume, th.CommandEqual("resume"))
	adminGroup.HandleMessage(h.OnStatus, th.CommandEqual("status"))

	// The bid button is for everyone; confirmations check identity themselves.
	bh.HandleCallbackQuery(h.OnBid, th.CallbackDataEqual(notifier.CallbackBid))
	bh.HandleCallbackQuery(h.OnWinnerAck, th.CallbackDataPrefix(notifier.CallbackWinnerPrefix))

	cbGroup := bh.Group(th.AnyCallbackQuery())
	cbGroup.Use(middleware.AdminOnly(adminID))
	cbGroup.HandleCallbackQuery(h.OnOrderConfirm, th.CallbackDataPrefix(notifier.CallbackOrderPrefix))
}
