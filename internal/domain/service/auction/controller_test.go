package auction_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tg_auction/internal/domain"
	"tg_auction/internal/domain/entity"
	"tg_auction/internal/domain/service/auction"
	"tg_auction/pkg/errcodes"
)

// --- fakes ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeAnnouncer struct {
	mu            sync.Mutex
	publishErr    error
	published     []auction.AuctionView
	edits         int
	finalized     []auction.ResultView
	results       []auction.ResultView
	sellerResults []auction.ResultView
	texts         []string
	panels        []auction.PanelView
	finalizedBids []decimal.Decimal
	nextMessageID int
}

func (f *fakeAnnouncer) PublishAuction(_ context.Context, v auction.AuctionView) (auction.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return auction.MessageRef{}, f.publishErr
	}
	f.published = append(f.published, v)
	f.nextMessageID++
	return auction.MessageRef{ChatID: 1, MessageID: f.nextMessageID}, nil
}

func (f *fakeAnnouncer) EditAuction(_ context.Context, _ auction.MessageRef, _ auction.AuctionView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return nil
}

func (f *fakeAnnouncer) FinalizeAuction(_ context.Context, _ auction.MessageRef, v auction.ResultView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, v)
	return nil
}

func (f *fakeAnnouncer) AnnounceAuction(_ context.Context, _ auction.AuctionView, _ []string) error {
	return nil
}

func (f *fakeAnnouncer) AnnounceResult(_ context.Context, v auction.ResultView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, v)
	return nil
}

func (f *fakeAnnouncer) RefreshPanel(_ context.Context, v auction.PanelView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panels = append(f.panels, v)
	return nil
}

func (f *fakeAnnouncer) NotifySellerResult(_ context.Context, v auction.ResultView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sellerResults = append(f.sellerResults, v)
	return nil
}

func (f *fakeAnnouncer) PublishAuctionText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeAnnouncer) FinalizeBidReceipts(_ context.Context, finalPrice decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizedBids = append(f.finalizedBids, finalPrice)
}

func (f *fakeAnnouncer) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakeAnnouncer) finalizedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.finalized)
}

type handleNotice struct {
	view   auction.OrderView
	handle string
}

type fakeWinner struct {
	orderCh  chan handleNotice
	dmCh     chan handleNotice
	buyerCh  chan string
	sellerCh chan string
}

func newFakeWinner() *fakeWinner {
	return &fakeWinner{
		orderCh:  make(chan handleNotice, 8),
		dmCh:     make(chan handleNotice, 8),
		buyerCh:  make(chan string, 8),
		sellerCh: make(chan string, 8),
	}
}

func (f *fakeWinner) SendWinnerDM(_ context.Context, v auction.OrderView, handle string) error {
	f.dmCh <- handleNotice{view: v, handle: handle}
	return nil
}

func (f *fakeWinner) NotifyOrderChannel(_ context.Context, v auction.OrderView, handle string) error {
	f.orderCh <- handleNotice{view: v, handle: handle}
	return nil
}

func (f *fakeWinner) SendBuyerConfirmation(_ context.Context, _ entity.BidderIdentity, orderNumber string) error {
	f.buyerCh <- orderNumber
	return nil
}

func (f *fakeWinner) NotifySellerText(_ context.Context, text string) error {
	f.sellerCh <- text
	return nil
}

type fakeAssets struct{}

func (fakeAssets) Lookup(_ context.Context, _, _ string) (string, string, error) {
	return "https://img.example/lot.jpg", "https://img.example/logo.png", nil
}

type fakeSnapshots struct {
	mu   sync.Mutex
	last *auction.Snapshot
}

func (f *fakeSnapshots) Write(_ context.Context, s auction.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = &s
	return nil
}

func (f *fakeSnapshots) Last() *auction.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type fakeOrders struct {
	mu     sync.Mutex
	n      int
	orders []entity.Order
}

func (f *fakeOrders) NextOrderNumber(now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return now.Format("AUC-2006-01-") + "0001", nil
}

func (f *fakeOrders) SaveOrder(o entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o)
	return nil
}

func (f *fakeOrders) saved() []entity.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Order(nil), f.orders...)
}

type fakeProducts struct {
	url string
	err error
}

func (f *fakeProducts) CreateAuctionProduct(_ context.Context, _ auction.OrderView) (string, error) {
	return f.url, f.err
}

// --- harness ---

type harness struct {
	ctrl      *auction.Controller
	announcer *fakeAnnouncer
	winner    *fakeWinner
	snapshots *fakeSnapshots
	orders    *fakeOrders
	clock     *fakeClock
}

func newHarness(t *testing.T, tick, refresh time.Duration, opts ...func(*auction.Controller)) (*harness, context.Context) {
	t.Helper()

	h := &harness{
		announcer: &fakeAnnouncer{},
		winner:    newFakeWinner(),
		snapshots: &fakeSnapshots{},
		orders:    &fakeOrders{},
		clock:     newFakeClock(),
	}

	h.ctrl = auction.NewController(
		h.announcer,
		h.winner,
		fakeAssets{},
		h.snapshots,
		h.orders,
		nil,
	).WithIntervals(tick, refresh).WithNow(h.clock.Now)

	for _, opt := range opts {
		opt(h.ctrl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() { _ = h.ctrl.Run(ctx) }()

	return h, ctx
}

func testLot(name string, seconds int) *entity.Auction {
	return &entity.Auction{
		Name:      name,
		LotNumber: "12",
		Price:     decimal.NewFromInt(10),
		Increment: decimal.RequireFromString("2.50"),
		Duration:  time.Duration(seconds) * time.Second,
	}
}

func (h *harness) waitState(t *testing.T, ctx context.Context, want auction.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := h.ctrl.Status(ctx)
		return err == nil && st.State == want
	}, 2*time.Second, 5*time.Millisecond)
}

// --- tests ---

func TestControllerFullLifecycle(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, 5*time.Millisecond, 10*time.Millisecond)

	pos, err := h.ctrl.Enqueue(ctx, testLot("Charizard", 30))
	rq.NoError(err)
	rq.Equal(1, pos)

	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)
	rq.Equal(1, h.announcer.publishedCount())

	alice := entity.PlatformUser(100, "alice")
	bob := entity.ExternalName("bob")

	price, err := h.ctrl.PlaceBid(ctx, alice, auction.SourceButton)
	rq.NoError(err)
	rq.True(price.Equal(decimal.RequireFromString("12.50")))

	price, err = h.ctrl.PlaceBid(ctx, bob, auction.SourceLiveChat)
	rq.NoError(err)
	rq.True(price.Equal(decimal.NewFromInt(15)))

	price, err = h.ctrl.PlaceBid(ctx, alice, auction.SourceButton)
	rq.NoError(err)
	rq.True(price.Equal(decimal.RequireFromString("17.50")))

	// Expire and close.
	h.clock.Advance(31 * time.Second)
	h.waitState(t, ctx, auction.StateIdle)

	rq.Equal(1, h.announcer.finalizedCount())

	saved := h.orders.saved()
	rq.Len(saved, 1)
	rq.Equal("AUC-2026-03-0001", saved[0].Number)
	rq.Equal(alice, saved[0].Buyer)
	rq.True(saved[0].Price.Equal(decimal.RequireFromString("17.50")))

	// Order channel notice, then admin confirm -> buyer DM.
	order := <-h.winner.orderCh
	rq.Equal("AUC-2026-03-0001", order.view.OrderNumber)
	rq.NoError(h.ctrl.ConfirmOrder(ctx, order.handle))
	rq.Equal("AUC-2026-03-0001", <-h.winner.buyerCh)

	// Winner DM, then the winner's OK -> seller notice.
	dm := <-h.winner.dmCh
	rq.NoError(h.ctrl.ConfirmReceipt(ctx, dm.handle, 100))
	rq.Contains(<-h.winner.sellerCh, "AUC-2026-03-0001")

	// Confirmations are one-shot.
	err = h.ctrl.ConfirmOrder(ctx, order.handle)
	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.NotFound, code)

	snap := h.snapshots.Last()
	rq.NotNil(snap)
	rq.True(snap.FinalPrice.Equal(decimal.RequireFromString("17.50")))
	rq.Equal("alice", snap.Leader)
}

func TestControllerGateErrors(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, time.Hour, time.Hour)

	// No auction running: bids rejected.
	_, err := h.ctrl.PlaceBid(ctx, entity.PlatformUser(1, "alice"), auction.SourceButton)
	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.NoActiveAuction, code)

	// Empty queue: start rejected.
	err = h.ctrl.StartNext(ctx)
	code, _ = domain.GetCode(err)
	rq.Equal(errcodes.QueueEmpty, code)

	// Paused: start rejected before the queue is even consulted.
	rq.NoError(h.ctrl.SetPaused(ctx, true))
	_, err = h.ctrl.Enqueue(ctx, testLot("Pikachu", 30))
	rq.NoError(err)
	err = h.ctrl.StartNext(ctx)
	code, _ = domain.GetCode(err)
	rq.Equal(errcodes.PanelPaused, code)

	// Resumed: start succeeds, second start rejected while one is running.
	rq.NoError(h.ctrl.SetPaused(ctx, false))
	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)

	err = h.ctrl.StartNext(ctx)
	code, _ = domain.GetCode(err)
	rq.Equal(errcodes.AuctionInProgress, code)
}

func TestControllerEnqueueValidation(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, time.Hour, time.Hour)

	for _, tc := range []struct {
		name string
		lot  *entity.Auction
	}{
		{"missing name", &entity.Auction{LotNumber: "1", Increment: decimal.NewFromInt(1), Duration: time.Second}},
		{"negative price", testLotWith(func(a *entity.Auction) { a.Price = decimal.NewFromInt(-1) })},
		{"zero increment", testLotWith(func(a *entity.Auction) { a.Increment = decimal.Zero })},
		{"zero duration", testLotWith(func(a *entity.Auction) { a.Duration = 0 })},
	} {
		_, err := h.ctrl.Enqueue(ctx, tc.lot)
		rq.Error(err, tc.name)
		rq.True(domain.IsAppError(err), tc.name)
	}

	st, err := h.ctrl.Status(ctx)
	rq.NoError(err)
	rq.Equal(0, st.QueueLen)
}

func testLotWith(mutate func(*entity.Auction)) *entity.Auction {
	a := testLot("Charizard", 30)
	mutate(a)
	return a
}

func TestControllerRejectsBidAfterExpiry(t *testing.T) {
	rq := require.New(t)
	// Tick disabled: the expiry is reached but the close has not run yet.
	h, ctx := newHarness(t, time.Hour, time.Hour)

	_, err := h.ctrl.Enqueue(ctx, testLot("Charizard", 30))
	rq.NoError(err)
	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)

	_, err = h.ctrl.PlaceBid(ctx, entity.PlatformUser(1, "alice"), auction.SourceButton)
	rq.NoError(err)

	h.clock.Advance(30 * time.Second)

	// Both sources get the same deterministic rejection.
	_, err = h.ctrl.PlaceBid(ctx, entity.PlatformUser(2, "bob"), auction.SourceButton)
	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.AuctionAlreadyFinished, code)

	_, err = h.ctrl.PlaceBid(ctx, entity.ExternalName("carol"), auction.SourceLiveChat)
	code, _ = domain.GetCode(err)
	rq.Equal(errcodes.AuctionAlreadyFinished, code)

	// The late bids changed nothing.
	st, err := h.ctrl.Status(ctx)
	rq.NoError(err)
	rq.NotNil(st.Current)
	rq.True(st.Current.Price.Equal(decimal.RequireFromString("12.50")))
}

func TestControllerAutoAdvance(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, 5*time.Millisecond, 10*time.Millisecond)

	_, err := h.ctrl.Enqueue(ctx, testLot("First", 30))
	rq.NoError(err)
	_, err = h.ctrl.Enqueue(ctx, testLot("Second", 30))
	rq.NoError(err)

	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)

	h.clock.Advance(31 * time.Second)

	// The second lot starts without a manual command.
	require.Eventually(t, func() bool {
		st, err := h.ctrl.Status(ctx)
		return err == nil && st.State == auction.StateActive &&
			st.Current != nil && st.Current.Title == "Second (12)"
	}, 2*time.Second, 5*time.Millisecond)

	rq.Equal(2, h.announcer.publishedCount())
}

func TestControllerNoWinnerClose(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, 5*time.Millisecond, 10*time.Millisecond)

	_, err := h.ctrl.Enqueue(ctx, testLot("Unloved", 30))
	rq.NoError(err)
	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)

	h.clock.Advance(31 * time.Second)
	h.waitState(t, ctx, auction.StateIdle)

	rq.Empty(h.orders.saved())

	select {
	case <-h.winner.dmCh:
		t.Fatal("no DM expected without a winner")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerPublishFailureReturnsLot(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, 5*time.Millisecond, 10*time.Millisecond)
	h.announcer.publishErr = context.DeadlineExceeded

	_, err := h.ctrl.Enqueue(ctx, testLot("Charizard", 30))
	rq.NoError(err)
	rq.NoError(h.ctrl.StartNext(ctx))

	// The publish fails, the lot goes back to the head of the queue.
	require.Eventually(t, func() bool {
		st, err := h.ctrl.Status(ctx)
		return err == nil && st.State == auction.StateIdle && st.QueueLen == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestControllerProductURLReachesWinnerDM(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, 5*time.Millisecond, 10*time.Millisecond,
		func(c *auction.Controller) {
			c.WithProductCreator(&fakeProducts{url: "https://shop.example/product/42"})
		})

	_, err := h.ctrl.Enqueue(ctx, testLot("Charizard", 30))
	rq.NoError(err)
	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)

	_, err = h.ctrl.PlaceBid(ctx, entity.PlatformUser(100, "alice"), auction.SourceButton)
	rq.NoError(err)

	h.clock.Advance(31 * time.Second)
	h.waitState(t, ctx, auction.StateIdle)

	dm := <-h.winner.dmCh
	rq.Equal("https://shop.example/product/42", dm.view.ProductURL)
}

func TestControllerProductFailureDegradesToEmptyURL(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, 5*time.Millisecond, 10*time.Millisecond,
		func(c *auction.Controller) {
			c.WithProductCreator(&fakeProducts{err: context.DeadlineExceeded})
		})

	_, err := h.ctrl.Enqueue(ctx, testLot("Charizard", 30))
	rq.NoError(err)
	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)

	_, err = h.ctrl.PlaceBid(ctx, entity.PlatformUser(100, "alice"), auction.SourceButton)
	rq.NoError(err)

	h.clock.Advance(31 * time.Second)
	h.waitState(t, ctx, auction.StateIdle)

	// The order still goes out, just without a product link.
	dm := <-h.winner.dmCh
	rq.Empty(dm.view.ProductURL)
}

func TestControllerReceiptConfirmIdentity(t *testing.T) {
	rq := require.New(t)
	h, ctx := newHarness(t, 5*time.Millisecond, 10*time.Millisecond)

	_, err := h.ctrl.Enqueue(ctx, testLot("Charizard", 30))
	rq.NoError(err)
	rq.NoError(h.ctrl.StartNext(ctx))
	h.waitState(t, ctx, auction.StateActive)

	_, err = h.ctrl.PlaceBid(ctx, entity.PlatformUser(100, "alice"), auction.SourceButton)
	rq.NoError(err)

	h.clock.Advance(31 * time.Second)
	h.waitState(t, ctx, auction.StateIdle)

	dm := <-h.winner.dmCh

	// Someone else pressing the winner's button is rejected and the handle
	// stays pending.
	err = h.ctrl.ConfirmReceipt(ctx, dm.handle, 999)
	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.Forbidden, code)

	rq.NoError(h.ctrl.ConfirmReceipt(ctx, dm.handle, 100))
}
