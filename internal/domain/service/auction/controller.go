package auction

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"tg_auction/internal/domain"
	"tg_auction/internal/domain/entity"
	"tg_auction/pkg/errcodes"
)

// State is the lifecycle phase of the auction session.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// BidSource labels where a bid came from, for metrics and logs only. Both
// sources go through the same gateway and the same acceptance policy.
type BidSource string

const (
	SourceButton   BidSource = "button"
	SourceLiveChat BidSource = "livechat"
)

const (
	defaultTickInterval    = 500 * time.Millisecond
	defaultRefreshInterval = time.Second
	queuePreviewLen        = 5
	inboxSize              = 64
)

// Controller owns the auction session: the current auction, the queue, the
// pause flag, message refs and pending confirmations. Every mutation funnels
// through a single command inbox drained by the Run goroutine, which makes
// bid application and the close transition mutually exclusive by construction.
type Controller struct {
	announcer Announcer
	winner    WinnerNotifier
	assets    AssetStore
	snapshots SnapshotWriter
	orders    OrderStore
	products  ProductCreator // nil when the shop integration is disabled
	archive   Archive        // nil when the archive is disabled
	metrics   *Metrics

	tickInterval    time.Duration
	refreshInterval time.Duration
	now             func() time.Time

	cmds chan command

	// Everything below is touched only by the Run goroutine.
	state         State
	paused        bool
	current       *entity.Auction
	auctionMsg    MessageRef
	queue         *Queue
	pendingOrders map[string]OrderView
	pendingAcks   map[string]OrderView
	sessionID     string
}

func NewController(
	announcer Announcer,
	winner WinnerNotifier,
	assets AssetStore,
	snapshots SnapshotWriter,
	orders OrderStore,
	metrics *Metrics,
) *Controller {
	return &Controller{
		announcer:       announcer,
		winner:          winner,
		assets:          assets,
		snapshots:       snapshots,
		orders:          orders,
		metrics:         metrics,
		tickInterval:    defaultTickInterval,
		refreshInterval: defaultRefreshInterval,
		now:             time.Now,
		cmds:            make(chan command, inboxSize),
		queue:           NewQueue(),
		pendingOrders:   make(map[string]OrderView),
		pendingAcks:     make(map[string]OrderView),
	}
}

func (c *Controller) WithProductCreator(p ProductCreator) *Controller {
	c.products = p
	return c
}

func (c *Controller) WithArchive(a Archive) *Controller {
	c.archive = a
	return c
}

func (c *Controller) WithIntervals(tick, refresh time.Duration) *Controller {
	if tick > 0 {
		c.tickInterval = tick
	}
	if refresh > 0 {
		c.refreshInterval = refresh
	}
	return c
}

func (c *Controller) WithNow(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Status is the derived session view returned to the /status command.
type Status struct {
	State        State
	Paused       bool
	QueueLen     int
	QueuePreview []string
	Current      *AuctionView
	Pending      int
}

// Run drains the command inbox and drives the countdown. It owns all session
// state; it returns when ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	tick := time.NewTicker(c.tickInterval)
	defer tick.Stop()

	refresh := time.NewTicker(c.refreshInterval)
	defer refresh.Stop()

	logger(ctx).Info("auction controller started",
		slog.Duration("tick", c.tickInterval),
		slog.Duration("refresh", c.refreshInterval),
	)

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("auction controller stopped")
			return ctx.Err()
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		case <-tick.C:
			c.checkExpiry(ctx)
		case <-refresh.C:
			c.refresh(ctx)
		}
	}
}

// PlaceBid submits a bid from either source and reports the resulting price.
// Bids are applied strictly in inbox-arrival order.
func (c *Controller) PlaceBid(ctx context.Context, bidder entity.BidderIdentity, source BidSource) (decimal.Decimal, error) {
	cmd := placeBidCmd{
		bidder: bidder,
		source: source,
		reply:  make(chan bidResult, 1),
	}
	if err := c.submit(ctx, cmd); err != nil {
		return decimal.Decimal{}, err
	}

	select {
	case res := <-cmd.reply:
		return res.price, res.err
	case <-ctx.Done():
		return decimal.Decimal{}, domain.WrapError(ctx.Err(), errcodes.ControllerStopped, "controller unavailable")
	}
}

// StartNext requests the Idle -> Starting transition. Gate violations come
// back as typed no-op errors and are never queued for later.
func (c *Controller) StartNext(ctx context.Context) error {
	return c.roundTrip(ctx, func(reply chan error) command {
		return startCmd{manual: true, reply: reply}
	})
}

// Enqueue appends an auction to the queue and returns its position (1-based).
func (c *Controller) Enqueue(ctx context.Context, a *entity.Auction) (int, error) {
	cmd := enqueueCmd{auction: a, reply: make(chan enqueueResult, 1)}
	if err := c.submit(ctx, cmd); err != nil {
		return 0, err
	}

	select {
	case res := <-cmd.reply:
		return res.position, res.err
	case <-ctx.Done():
		return 0, domain.WrapError(ctx.Err(), errcodes.ControllerStopped, "controller unavailable")
	}
}

// SetPaused toggles the pause flag. Pausing never interrupts a running
// auction; it only suppresses the next start.
func (c *Controller) SetPaused(ctx context.Context, paused bool) error {
	return c.roundTrip(ctx, func(reply chan error) command {
		return pauseCmd{paused: paused, reply: reply}
	})
}

// Status returns the current session view.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	cmd := statusCmd{reply: make(chan Status, 1)}
	if err := c.submit(ctx, cmd); err != nil {
		return Status{}, err
	}

	select {
	case st := <-cmd.reply:
		return st, nil
	case <-ctx.Done():
		return Status{}, domain.WrapError(ctx.Err(), errcodes.ControllerStopped, "controller unavailable")
	}
}

// ConfirmOrder resolves an order-channel confirmation pressed by the admin.
func (c *Controller) ConfirmOrder(ctx context.Context, handle string) error {
	return c.roundTrip(ctx, func(reply chan error) command {
		return confirmCmd{kind: confirmOrder, handle: handle, reply: reply}
	})
}

// ConfirmReceipt resolves the winner's OK button on the DM. The userID must
// match the buyer the confirmation was addressed to.
func (c *Controller) ConfirmReceipt(ctx context.Context, handle string, userID int64) error {
	return c.roundTrip(ctx, func(reply chan error) command {
		return confirmCmd{kind: confirmAck, handle: handle, userID: userID, reply: reply}
	})
}

func (c *Controller) submit(ctx context.Context, cmd command) error {
	select {
	case c.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return domain.WrapError(ctx.Err(), errcodes.ControllerStopped, "controller unavailable")
	}
}

func (c *Controller) roundTrip(ctx context.Context, build func(chan error) command) error {
	reply := make(chan error, 1)
	if err := c.submit(ctx, build(reply)); err != nil {
		return err
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return domain.WrapError(ctx.Err(), errcodes.ControllerStopped, "controller unavailable")
	}
}

// --- commands ---

type command interface{ isCommand() }

type bidResult struct {
	price decimal.Decimal
	err   error
}

type placeBidCmd struct {
	bidder entity.BidderIdentity
	source BidSource
	reply  chan bidResult
}

type startCmd struct {
	manual bool
	reply  chan error // nil on automatic advance
}

type enqueueResult struct {
	position int
	err      error
}

type enqueueCmd struct {
	auction *entity.Auction
	reply   chan enqueueResult
}

type pauseCmd struct {
	paused bool
	reply  chan error
}

type statusCmd struct {
	reply chan Status
}

type confirmKind int

const (
	confirmOrder confirmKind = iota
	confirmAck
)

type confirmCmd struct {
	kind   confirmKind
	handle string
	userID int64
	reply  chan error
}

// readyCmd comes back from the preparation goroutine once assets are fetched
// and the auction message is published.
type readyCmd struct {
	auction  *entity.Auction
	imageURL string
	logoURL  string
	msg      MessageRef
	err      error
}

// registerPendingCmd comes from the order-dispatch goroutine so the pending
// maps are only ever touched on the controller goroutine.
type registerPendingCmd struct {
	kind   confirmKind
	handle string
	view   OrderView
	done   chan struct{}
}

func (placeBidCmd) isCommand()        {}
func (startCmd) isCommand()           {}
func (enqueueCmd) isCommand()         {}
func (pauseCmd) isCommand()           {}
func (statusCmd) isCommand()          {}
func (confirmCmd) isCommand()         {}
func (readyCmd) isCommand()           {}
func (registerPendingCmd) isCommand() {}

// --- owner-goroutine handlers ---

func (c *Controller) handle(ctx context.Context, cmd command) {
	switch cmd := cmd.(type) {
	case placeBidCmd:
		price, err := c.applyBid(ctx, cmd.bidder, cmd.source)
		cmd.reply <- bidResult{price: price, err: err}
	case startCmd:
		err := c.startNext(ctx)
		if cmd.reply != nil {
			cmd.reply <- err
		} else if err != nil {
			// Stale background trigger, nothing to report back.
			logger(ctx).Debug("auto start skipped", slog.String("reason", err.Error()))
		}
	case enqueueCmd:
		cmd.reply <- c.enqueue(ctx, cmd.auction)
	case pauseCmd:
		c.paused = cmd.paused
		logger(ctx).Info("pause flag set", slog.Bool("paused", c.paused))
		cmd.reply <- nil
	case statusCmd:
		cmd.reply <- c.status()
	case confirmCmd:
		cmd.reply <- c.confirm(ctx, cmd)
	case readyCmd:
		c.onReady(ctx, cmd)
	case registerPendingCmd:
		c.registerPending(cmd)
	}
}

func (c *Controller) applyBid(ctx context.Context, bidder entity.BidderIdentity, source BidSource) (decimal.Decimal, error) {
	if c.state != StateActive || c.current == nil {
		return decimal.Decimal{}, domain.NewError(errcodes.NoActiveAuction, "no auction is running")
	}

	now := c.now()
	if c.current.Remaining(now) == 0 {
		// The countdown has expired but the close transition has not been
		// processed yet. Reject: the same policy applies to every source.
		return decimal.Decimal{}, domain.NewError(errcodes.AuctionAlreadyFinished, "auction already finished")
	}

	c.current.AcceptBid(bidder, now)
	c.metrics.BidAccepted(source)

	logger(ctx).Info("bid accepted",
		slog.String("session", c.sessionID),
		slog.String("bidder", bidder.DisplayName()),
		slog.String("source", string(source)),
		slog.String("price", c.current.Price.StringFixed(2)),
	)

	c.writeSnapshot(ctx)

	return c.current.Price, nil
}

func (c *Controller) startNext(ctx context.Context) error {
	if c.paused {
		return domain.NewError(errcodes.PanelPaused, "panel is paused")
	}
	if c.state != StateIdle {
		return domain.NewError(errcodes.AuctionInProgress, "an auction is already in progress")
	}

	next, ok := c.queue.Dequeue()
	if !ok {
		return domain.NewError(errcodes.QueueEmpty, "no auctions in the queue")
	}

	c.state = StateStarting
	c.current = next
	c.sessionID = xid.New().String()

	logger(ctx).Info("starting auction",
		slog.String("session", c.sessionID),
		slog.String("lot", next.Title()),
	)

	go c.prepare(ctx, next)

	return nil
}

// prepare runs off the controller goroutine: asset lookup and the initial
// publish are slow I/O that must not block bid handling. It reads only fields
// that are immutable while the auction is in Starting.
func (c *Controller) prepare(ctx context.Context, a *entity.Auction) {
	imageURL, logoURL, err := c.assets.Lookup(ctx, a.Name, a.LotNumber)
	if err != nil {
		logger(ctx).Warn("asset lookup failed",
			slog.String("lot", a.Title()),
			slog.Any("error", err),
		)
	}

	logger(ctx).Info("assets resolved",
		slog.String("lot", a.Title()),
		slog.Bool("image", imageURL != ""),
		slog.Bool("logo", logoURL != ""),
	)

	view := buildAuctionView(a, c.now())
	view.ImageURL = imageURL
	view.LogoURL = logoURL

	msg, err := c.announcer.PublishAuction(ctx, view)

	ready := readyCmd{
		auction:  a,
		imageURL: imageURL,
		logoURL:  logoURL,
		msg:      msg,
		err:      err,
	}

	select {
	case c.cmds <- ready:
	case <-ctx.Done():
	}
}

func (c *Controller) onReady(ctx context.Context, cmd readyCmd) {
	if c.state != StateStarting || c.current != cmd.auction {
		// Stale ready from a torn-down session.
		return
	}

	if cmd.err != nil {
		logger(ctx).Error("auction publish failed, returning lot to queue",
			slog.String("lot", cmd.auction.Title()),
			slog.Any("error", cmd.err),
		)
		c.queue.PushFront(cmd.auction)
		c.current = nil
		c.state = StateIdle
		return
	}

	c.current.ImageURL = cmd.imageURL
	c.current.LogoURL = cmd.logoURL
	// The countdown starts here, not at dequeue: assets and the announcement
	// are already in place.
	c.current.StartTime = c.now()
	c.auctionMsg = cmd.msg
	c.state = StateActive

	c.metrics.AuctionStarted()
	c.writeSnapshot(ctx)
	c.refresh(ctx)

	logger(ctx).Info("auction active",
		slog.String("session", c.sessionID),
		slog.String("lot", c.current.Title()),
		slog.Duration("duration", c.current.Duration),
	)
}

func (c *Controller) enqueue(ctx context.Context, a *entity.Auction) enqueueResult {
	if err := validateLot(a); err != nil {
		return enqueueResult{err: err}
	}

	position := c.queue.Enqueue(a)

	logger(ctx).Info("auction enqueued",
		slog.String("lot", a.Title()),
		slog.Int("position", position),
	)

	// The snapshot embeds the next lot, keep it fresh.
	if c.current != nil {
		c.writeSnapshot(ctx)
	}

	return enqueueResult{position: position}
}

func validateLot(a *entity.Auction) error {
	switch {
	case a == nil, a.Name == "", a.LotNumber == "":
		return domain.NewError(errcodes.InvalidLot, "lot name and number are required")
	case a.Price.IsNegative():
		return domain.NewError(errcodes.InvalidPrice, "start price cannot be negative")
	case !a.Increment.IsPositive():
		return domain.NewError(errcodes.InvalidIncrement, "increment must be positive")
	case a.Duration <= 0:
		return domain.NewError(errcodes.InvalidDuration, "duration must be positive")
	}
	return nil
}

func (c *Controller) status() Status {
	st := Status{
		State:        c.state,
		Paused:       c.paused,
		QueueLen:     c.queue.Len(),
		QueuePreview: c.queuePreview(),
		Pending:      len(c.pendingOrders) + len(c.pendingAcks),
	}
	if c.current != nil {
		v := buildAuctionView(c.current, c.now())
		st.Current = &v
	}
	return st
}

// checkExpiry fires the Active -> Closing transition at most once. Running it
// when nothing is active is a no-op, so a stale tick after close is harmless.
func (c *Controller) checkExpiry(ctx context.Context) {
	if c.state != StateActive || c.current == nil {
		return
	}
	if c.current.Remaining(c.now()) > 0 {
		return
	}

	c.state = StateClosing
	c.closeCurrent(ctx)
}

func (c *Controller) refresh(ctx context.Context) {
	now := c.now()

	var current *AuctionView
	if c.current != nil {
		v := buildAuctionView(c.current, now)
		current = &v
	}

	preview := c.queuePreview()

	if err := c.announcer.RefreshPanel(ctx, PanelView{QueuePreview: preview, Current: current}); err != nil {
		logger(ctx).Warn("panel refresh failed", slog.Any("error", err))
	}

	if c.state != StateActive || current == nil {
		return
	}

	if err := c.announcer.EditAuction(ctx, c.auctionMsg, *current); err != nil {
		logger(ctx).Warn("auction message refresh failed", slog.Any("error", err))
	}
	if err := c.announcer.AnnounceAuction(ctx, *current, preview); err != nil {
		logger(ctx).Warn("announcement refresh failed", slog.Any("error", err))
	}
}

func (c *Controller) queuePreview() []string {
	return lo.Map(c.queue.Peek(queuePreviewLen), func(a *entity.Auction, _ int) string {
		return a.Title()
	})
}

func (c *Controller) nextQueued() *entity.Auction {
	if heads := c.queue.Peek(1); len(heads) > 0 {
		return heads[0]
	}
	return nil
}

func (c *Controller) writeSnapshot(ctx context.Context) {
	if c.current == nil {
		return
	}

	if err := c.snapshots.Write(ctx, BuildSnapshot(c.current, c.nextQueued())); err != nil {
		logger(ctx).Warn("snapshot write failed", slog.Any("error", err))
	}
}

func (c *Controller) registerPending(cmd registerPendingCmd) {
	switch cmd.kind {
	case confirmOrder:
		c.pendingOrders[cmd.handle] = cmd.view
	case confirmAck:
		c.pendingAcks[cmd.handle] = cmd.view
	}
	close(cmd.done)
}

func (c *Controller) confirm(ctx context.Context, cmd confirmCmd) error {
	switch cmd.kind {
	case confirmOrder:
		view, ok := c.pendingOrders[cmd.handle]
		if !ok {
			return domain.NewError(errcodes.NotFound, "order confirmation not found")
		}
		delete(c.pendingOrders, cmd.handle)

		go func() {
			if err := c.winner.SendBuyerConfirmation(ctx, view.Buyer, view.OrderNumber); err != nil {
				logger(ctx).Warn("buyer confirmation failed",
					slog.String("order", view.OrderNumber),
					slog.Any("error", err),
				)
			}
		}()

		return nil
	case confirmAck:
		view, ok := c.pendingAcks[cmd.handle]
		if !ok {
			return domain.NewError(errcodes.NotFound, "receipt confirmation not found")
		}
		if view.Buyer.Kind == entity.BidderKindPlatformUser && view.Buyer.ID != cmd.userID {
			return domain.NewError(errcodes.Forbidden, "confirmation belongs to another user")
		}
		delete(c.pendingAcks, cmd.handle)

		go func() {
			text := view.Buyer.DisplayName() + " confirmed order " + view.OrderNumber
			if err := c.winner.NotifySellerText(ctx, text); err != nil {
				logger(ctx).Warn("seller ack notice failed", slog.Any("error", err))
			}
		}()

		return nil
	default:
		return domain.NewError(errcodes.InternalServerError, "unknown confirmation kind")
	}
}
