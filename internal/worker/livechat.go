package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"tg_auction/internal/domain/entity"
	service "tg_auction/internal/domain/service/auction"
	"tg_auction/internal/infrastructure/youtube"
)

// bidKeyword is matched case-insensitively anywhere in a chat message.
const bidKeyword = "!bid"

const (
	seenTTL         = 30 * time.Minute
	seenSweepEvery  = 10 * time.Minute
	defaultInterval = 5 * time.Second
)

// ChatSource is one page of the live chat, resumed via the returned token.
type ChatSource interface {
	FetchMessages(ctx context.Context, pageToken string) ([]youtube.Message, string, error)
}

// BidPlacer accepts bids on behalf of chat authors.
type BidPlacer interface {
	PlaceBid(ctx context.Context, bidder entity.BidderIdentity, source service.BidSource) (decimal.Decimal, error)
}

// LiveChatScanner polls the stream live chat and turns keyword messages into
// bids. Messages are deduplicated by id because consecutive polls overlap.
type LiveChatScanner struct {
	client ChatSource
	ctrl   BidPlacer

	interval  time.Duration
	pageToken string
	seen      *cache.Cache

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewLiveChatScanner(client ChatSource, ctrl BidPlacer) *LiveChatScanner {
	return &LiveChatScanner{
		client:   client,
		ctrl:     ctrl,
		interval: defaultInterval,
		seen:     cache.New(seenTTL, seenSweepEvery),
	}
}

func (w *LiveChatScanner) WithInterval(interval time.Duration) *LiveChatScanner {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

func (w *LiveChatScanner) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("live chat scanner is already running")
	}

	scanCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(scanCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(scanCtx).Error("live chat scanner stopped", "error", err)
		}
	}()

	return nil
}

func (w *LiveChatScanner) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *LiveChatScanner) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *LiveChatScanner) Run(ctx context.Context) error {
	logger(ctx).Info("live chat scanner started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("live chat scanner stopped")
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll fetches one page of chat messages. Poll errors are transient (quota,
// network), so they only log and the cursor is kept for the next round.
func (w *LiveChatScanner) poll(ctx context.Context) {
	messages, nextToken, err := w.client.FetchMessages(ctx, w.pageToken)
	if err != nil {
		logger(ctx).Warn("live chat poll failed", "error", err)
		return
	}
	if nextToken != "" {
		w.pageToken = nextToken
	}

	for _, msg := range messages {
		if _, dup := w.seen.Get(msg.ID); dup {
			continue
		}
		w.seen.SetDefault(msg.ID, struct{}{})

		if !strings.Contains(strings.ToLower(msg.Text), bidKeyword) {
			continue
		}
		if msg.Author == "" {
			continue
		}

		price, err := w.ctrl.PlaceBid(ctx, entity.ExternalName(msg.Author), service.SourceLiveChat)
		if err != nil {
			logger(ctx).Debug("live chat bid rejected", "author", msg.Author, "error", err)
			continue
		}

		logger(ctx).Info("live chat bid accepted",
			"author", msg.Author, "price", price.StringFixed(2))
	}
}
