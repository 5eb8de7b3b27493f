package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_auction/internal/config"
	service "tg_auction/internal/domain/service/auction"
	"tg_auction/internal/infrastructure/notifier"
	"tg_auction/internal/transport/bot/handler"
	"tg_auction/internal/worker"
)

// Bot is the Telegram transport: long-polling updates routed to the command
// and callback handlers.
type Bot struct {
	bot        *telego.Bot
	botHandler *th.BotHandler

	handler *handler.Handler
}

func New(
	bot *telego.Bot,
	cfg config.Config,
	ctrl *service.Controller,
	n *notifier.TelegramNotifier,
	scanner *worker.LiveChatScanner,
	archive handler.ArchiveCounter,
) (*Bot, error) {
	updates, err := bot.UpdatesViaLongPolling(context.Background(), &telego.GetUpdatesParams{
		Timeout: 60,
	})
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}

	botHandler, err := th.NewBotHandler(bot, updates)
	if err != nil {
		return nil, fmt.Errorf("create bot handler: %w", err)
	}

	commandHandler := handler.New(ctrl, n, scanner, archive)
	commandHandler.RegisterRoutes(botHandler, cfg.Bot.AdminID)

	return &Bot{
		bot:        bot,
		botHandler: botHandler,
		handler:    commandHandler,
	}, nil
}

// Run processes updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		if err := b.botHandler.Start(); err != nil {
			logger(ctx).Error("bot handler start", "error", err)
		}
	}()

	<-ctx.Done()

	if err := b.botHandler.Stop(); err != nil {
		logger(ctx).Warn("bot handler stop", "error", err)
	}

	return ctx.Err()
}
