package handler

import (
	"context"

	"github.com/go-playground/validator/v10"

	service "tg_auction/internal/domain/service/auction"
	"tg_auction/internal/infrastructure/notifier"
	"tg_auction/internal/worker"
)

// ArchiveCounter is the slice of the archive the /status command needs.
type ArchiveCounter interface {
	CountClosed(ctx context.Context) (int, error)
}

type Handler struct {
	ctrl     *service.Controller
	notifier *notifier.TelegramNotifier
	scanner  *worker.LiveChatScanner // nil when live chat is disabled
	archive  ArchiveCounter          // nil when the archive is disabled
	validate *validator.Validate
}

func New(ctrl *service.Controller, n *notifier.TelegramNotifier, scanner *worker.LiveChatScanner, archive ArchiveCounter) *Handler {
	return &Handler{
		ctrl:     ctrl,
		notifier: n,
		scanner:  scanner,
		archive:  archive,
		validate: validator.New(),
	}
}
