package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mymmrac/telego"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"tg_auction/internal/config"
	service "tg_auction/internal/domain/service/auction"
	"tg_auction/internal/infrastructure/assets"
	"tg_auction/internal/infrastructure/notifier"
	"tg_auction/internal/infrastructure/orders"
	"tg_auction/internal/infrastructure/persistence"
	"tg_auction/internal/infrastructure/shoper"
	"tg_auction/internal/infrastructure/snapshot"
	"tg_auction/internal/infrastructure/youtube"
	"tg_auction/internal/server"
	transport "tg_auction/internal/transport/bot"
	"tg_auction/internal/transport/bot/handler"
	"tg_auction/internal/worker"
	"tg_auction/pkg/application/connectors"
	"tg_auction/pkg/contextx"
	"tg_auction/pkg/metrics"
	"tg_auction/pkg/probe"
)

const (
	appName    = "auction-bot"
	appVersion = "1.0.0"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(log)
	ctx = contextx.WithLogger(ctx, log)

	if err := run(ctx, log); err != nil {
		log.Error("application failed", "error", err)
		os.Exit(1)
	}

	log.Info("application stopped")
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	bot, err := telego.NewBot(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	tgNotifier := notifier.NewTelegramNotifier(bot, cfg.Bot)

	assetStore := assets.NewStore(cfg.Auction.ScansDir, cfg.Auction.BaseImageURL)

	snapshotWriter, err := snapshot.NewWriter(cfg.Auction.SnapshotDir)
	if err != nil {
		return fmt.Errorf("snapshot writer: %w", err)
	}

	orderStore, err := orders.NewStore(cfg.Auction.OrdersDir)
	if err != nil {
		return fmt.Errorf("order store: %w", err)
	}

	ctrl := service.NewController(
		tgNotifier,
		tgNotifier,
		assetStore,
		snapshotWriter,
		orderStore,
		service.NewMetrics(prometheus.DefaultRegisterer),
	).WithIntervals(cfg.Auction.TickInterval, cfg.Auction.RefreshInterval)

	if cfg.Shoper.Enabled() {
		shop, err := shoper.NewClient(cfg.Shoper)
		if err != nil {
			return fmt.Errorf("shoper client: %w", err)
		}
		ctrl = ctrl.WithProductCreator(shop)
		log.Info("shop integration enabled", slog.String("url", cfg.Shoper.APIURL))
	}

	var archive handler.ArchiveCounter
	if cfg.Postgres.Enabled() {
		pg := &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
		db := pg.Client(ctx)
		defer pg.Close(ctx)

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		log.Info("database connection OK")

		repo := persistence.NewAuctionRepository(db)
		ctrl = ctrl.WithArchive(repo)
		archive = repo
	}

	var scanner *worker.LiveChatScanner
	if cfg.YouTube.Enabled() {
		scanner = worker.NewLiveChatScanner(youtube.NewClient(cfg.YouTube), ctrl).
			WithInterval(cfg.YouTube.PollInterval)
	}

	tgBot, err := transport.New(bot, cfg, ctrl, tgNotifier, scanner, archive)
	if err != nil {
		return fmt.Errorf("bot transport: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return ctrl.Run(groupCtx)
	})

	group.Go(func() error {
		return tgBot.Run(groupCtx)
	})

	if scanner != nil {
		group.Go(func() error {
			if err := scanner.Start(groupCtx); err != nil {
				return fmt.Errorf("live chat scanner: %w", err)
			}
			<-groupCtx.Done()
			scanner.Stop()
			return groupCtx.Err()
		})
	}

	group.Go(func() error {
		return probe.NewServer(cfg.Servers.ProbeAddress, probe.Options{
			Name:    appName,
			Version: appVersion,
		}).Run(groupCtx)
	})

	group.Go(func() error {
		return metrics.NewPrometheusServer(cfg.Servers.MetricsAddress).Run(groupCtx)
	})

	if cfg.Servers.OverlayEnabled() {
		group.Go(func() error {
			return server.NewServer(cfg.Servers.OverlayAddress, snapshotWriter).Run(groupCtx)
		})
	}

	log.Info("application started")

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
