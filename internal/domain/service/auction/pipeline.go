package auction

import (
	"context"
	"log/slog"

	"github.com/rs/xid"

	"tg_auction/internal/domain/entity"
)

// closeCurrent runs the post-close side-effect pipeline. Each step is
// best-effort: a failing integration is logged and the pipeline moves on, so
// one broken collaborator can never stall auction progression. Runs on the
// controller goroutine; only the slow commerce/DM tail is dispatched as a
// background task.
func (c *Controller) closeCurrent(ctx context.Context) {
	a := c.current
	next := c.nextQueued()
	now := c.now()

	logger(ctx).Info("auction closing",
		slog.String("session", c.sessionID),
		slog.String("lot", a.Title()),
		slog.String("final_price", a.Price.StringFixed(2)),
		slog.String("winner", a.Leader.DisplayName()),
	)

	// 1. Persist the final read-model snapshot.
	c.writeSnapshot(ctx)

	// 2. Result notifications.
	result := buildResultView(a, next)

	if !c.auctionMsg.IsZero() {
		if err := c.announcer.FinalizeAuction(ctx, c.auctionMsg, result); err != nil {
			logger(ctx).Warn("auction message finalize failed", slog.Any("error", err))
		}
	}
	if err := c.announcer.AnnounceResult(ctx, result); err != nil {
		logger(ctx).Warn("result announcement failed", slog.Any("error", err))
	}
	if err := c.announcer.NotifySellerResult(ctx, result); err != nil {
		logger(ctx).Warn("seller result notice failed", slog.Any("error", err))
	}

	if !a.Leader.IsZero() {
		text := "Congratulations!\nWinner: " + a.Leader.DisplayName() + "\nWatch your DMs."
		if err := c.announcer.PublishAuctionText(ctx, text); err != nil {
			logger(ctx).Warn("congratulation message failed", slog.Any("error", err))
		}
	}

	nextText := "Auction finished. No more lots queued."
	if next != nil {
		nextText = "Auction finished. Up next: " + next.Title()
	}
	if err := c.announcer.PublishAuctionText(ctx, nextText); err != nil {
		logger(ctx).Warn("next-up message failed", slog.Any("error", err))
	}

	// 3. Order creation for the winner, then the async commerce/DM tail.
	if !a.Leader.IsZero() {
		c.createOrder(ctx, a)
	}

	if c.archive != nil {
		if err := c.archive.SaveClosed(ctx, a, now); err != nil {
			logger(ctx).Warn("archive save failed", slog.Any("error", err))
		}
	}

	c.announcer.FinalizeBidReceipts(ctx, a.Price)
	c.metrics.AuctionClosed(!a.Leader.IsZero())

	// 4. Tear down and advance.
	c.current = nil
	c.auctionMsg = MessageRef{}
	c.state = StateIdle

	c.refresh(ctx)

	if !c.paused && c.queue.Len() > 0 {
		if err := c.startNext(ctx); err != nil {
			logger(ctx).Debug("auto advance skipped", slog.String("reason", err.Error()))
		}
	}
}

func (c *Controller) createOrder(ctx context.Context, a *entity.Auction) {
	now := c.now()

	number, err := c.orders.NextOrderNumber(now)
	if err != nil {
		logger(ctx).Error("order numbering failed", slog.Any("error", err))
		return
	}
	a.OrderNumber = number

	order := entity.NewOrder(number, a, now)
	if err := c.orders.SaveOrder(order); err != nil {
		logger(ctx).Error("order record save failed",
			slog.String("order", number),
			slog.Any("error", err),
		)
	}

	logger(ctx).Info("order created",
		slog.String("order", number),
		slog.String("buyer", a.Leader.DisplayName()),
		slog.String("price", a.Price.StringFixed(2)),
	)

	view := OrderView{
		OrderNumber:   number,
		Title:         a.Title(),
		Price:         a.Price,
		Buyer:         a.Leader,
		PaymentMethod: a.PaymentMethod,
		ImageURL:      a.ImageURL,
	}

	// Fire-and-forget: the controller advances to the next auction without
	// waiting for the commerce call or the DM. Completion order relative to
	// the next start is deliberately unspecified.
	go c.dispatchOrder(ctx, view)
}

// dispatchOrder runs the slow tail of the pipeline: optional product creation
// on the external shop, the order-channel notice and the winner DM, each with
// its own pending-confirmation handle. Pending-map writes funnel back through
// the inbox so only the controller goroutine touches session state.
func (c *Controller) dispatchOrder(ctx context.Context, view OrderView) {
	if c.products != nil {
		url, err := c.products.CreateAuctionProduct(ctx, view)
		if err != nil {
			logger(ctx).Error("product creation failed",
				slog.String("order", view.OrderNumber),
				slog.Any("error", err),
			)
			c.metrics.ProductCreateFailed()
		} else {
			view.ProductURL = url
		}
	}

	orderHandle := xid.New().String()
	if !c.register(ctx, confirmOrder, orderHandle, view) {
		return
	}
	if err := c.winner.NotifyOrderChannel(ctx, view, orderHandle); err != nil {
		logger(ctx).Warn("order channel notice failed",
			slog.String("order", view.OrderNumber),
			slog.Any("error", err),
		)
	}

	ackHandle := xid.New().String()
	if !c.register(ctx, confirmAck, ackHandle, view) {
		return
	}
	if err := c.winner.SendWinnerDM(ctx, view, ackHandle); err != nil {
		logger(ctx).Warn("winner DM failed",
			slog.String("order", view.OrderNumber),
			slog.String("buyer", view.Buyer.DisplayName()),
			slog.Any("error", err),
		)
	}
}

func (c *Controller) register(ctx context.Context, kind confirmKind, handle string, view OrderView) bool {
	cmd := registerPendingCmd{
		kind:   kind,
		handle: handle,
		view:   view,
		done:   make(chan struct{}),
	}

	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return false
	}

	select {
	case <-cmd.done:
		return true
	case <-ctx.Done():
		return false
	}
}
