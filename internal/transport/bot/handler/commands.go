package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_auction/internal/domain"
	"tg_auction/internal/domain/entity"
	"tg_auction/internal/transport/bot/view"
	"tg_auction/pkg/errcodes"
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

// addLotRequest is the parsed /add command, validated before it becomes an
// auction.
type addLotRequest struct {
	Name      string `validate:"required,min=2,max=128"`
	LotNumber string `validate:"required,max=32"`
	Price     string `validate:"required"`
	Increment string `validate:"required"`
	Seconds   int    `validate:"required,gt=0,lte=86400"`
}

// OnAdd queues a lot. Fields are semicolon separated so names can contain
// spaces: /add name ; lot ; price ; increment ; seconds [; description]
func (h *Handler) OnAdd(ctx *th.Context, msg telego.Message) error {
	args := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/add"))
	parts := strings.Split(args, ";")
	if len(parts) < 5 {
		return h.send(ctx, msg.Chat.ID, view.AddMissingArgument)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	seconds, err := strconv.Atoi(parts[4])
	if err != nil {
		return h.send(ctx, msg.Chat.ID, view.AddInvalidDuration)
	}

	req := addLotRequest{
		Name:      parts[0],
		LotNumber: parts[1],
		Price:     parts[2],
		Increment: parts[3],
		Seconds:   seconds,
	}
	if err := h.validate.Struct(req); err != nil {
		return h.send(ctx, msg.Chat.ID, view.AddMissingArgument)
	}

	price, err := entity.ParseAmount(req.Price)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, view.AddInvalidPrice)
	}
	increment, err := entity.ParseAmount(req.Increment)
	if err != nil || !increment.IsPositive() {
		return h.send(ctx, msg.Chat.ID, view.AddInvalidPrice)
	}

	auction := &entity.Auction{
		Name:      req.Name,
		LotNumber: req.LotNumber,
		Price:     price,
		Increment: increment,
		Duration:  time.Duration(req.Seconds) * time.Second,
	}
	if len(parts) > 5 {
		auction.Description = strings.Join(parts[5:], ";")
	}

	position, err := h.ctrl.Enqueue(ctx, auction)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, errorText(err))
	}

	return h.sendHTML(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ <b>%s</b> queued at position %d", auction.Title(), position))
}

func (h *Handler) OnAuction(ctx *th.Context, msg telego.Message) error {
	if err := h.ctrl.StartNext(ctx); err != nil {
		return h.send(ctx, msg.Chat.ID, errorText(err))
	}
	return h.send(ctx, msg.Chat.ID, "🚀 Starting the next lot")
}

func (h *Handler) OnQueue(ctx *th.Context, msg telego.Message) error {
	st, err := h.ctrl.Status(ctx)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, errorText(err))
	}

	if st.QueueLen == 0 {
		return h.send(ctx, msg.Chat.ID, view.QueueEmpty)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Queue (%d):</b>\n", st.QueueLen)
	for i, title := range st.QueuePreview {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
	}
	if st.QueueLen > len(st.QueuePreview) {
		fmt.Fprintf(&sb, "… and %d more", st.QueueLen-len(st.QueuePreview))
	}

	return h.sendHTML(ctx, msg.Chat.ID, sb.String())
}

func (h *Handler) OnPause(ctx *th.Context, msg telego.Message) error {
	if err := h.ctrl.SetPaused(ctx, true); err != nil {
		return h.send(ctx, msg.Chat.ID, errorText(err))
	}
	return h.send(ctx, msg.Chat.ID, view.Paused)
}

func (h *Handler) OnResume(ctx *th.Context, msg telego.Message) error {
	if err := h.ctrl.SetPaused(ctx, false); err != nil {
		return h.send(ctx, msg.Chat.ID, errorText(err))
	}
	return h.send(ctx, msg.Chat.ID, view.Resumed)
}

func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	st, err := h.ctrl.Status(ctx)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, errorText(err))
	}

	scannerStatus := "not configured"
	if h.scanner != nil {
		scannerStatus = "🔴 stopped"
		if h.scanner.IsRunning() {
			scannerStatus = "🟢 running"
		}
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Session status</b>\n\n")
	fmt.Fprintf(&sb, "State: %s\n", st.State)
	fmt.Fprintf(&sb, "Paused: %s\n", boolToStatus(st.Paused))
	fmt.Fprintf(&sb, "Queued lots: %d\n", st.QueueLen)
	fmt.Fprintf(&sb, "Pending confirmations: %d\n", st.Pending)
	fmt.Fprintf(&sb, "Live chat: %s\n", scannerStatus)

	if h.archive != nil {
		if count, err := h.archive.CountClosed(ctx); err == nil {
			fmt.Fprintf(&sb, "Archived results: %d\n", count)
		}
	}

	if st.Current != nil {
		fmt.Fprintf(&sb, "\nCurrent: %s\nPrice: %s PLN\n",
			st.Current.Title, st.Current.Price.StringFixed(2))
		if st.Current.Leader != "" {
			fmt.Fprintf(&sb, "Leader: %s\n", st.Current.Leader)
		}
		if st.Current.Started {
			fmt.Fprintf(&sb, "Remaining: %ds\n", int(st.Current.Remaining/time.Second))
		}
	}

	return h.sendHTML(ctx, msg.Chat.ID, sb.String())
}

func boolToStatus(b bool) string {
	if b {
		return "✅ yes"
	}
	return "❌ no"
}

// errorText maps domain error codes to user-facing replies.
func errorText(err error) string {
	code, ok := domain.GetCode(err)
	if !ok {
		return view.SomethingWrong
	}

	switch code {
	case errcodes.NoActiveAuction:
		return view.NoActiveAuction
	case errcodes.AuctionInProgress:
		return view.AuctionRunning
	case errcodes.AuctionAlreadyFinished:
		return view.AuctionFinished
	case errcodes.PanelPaused:
		return view.PanelPausedNote
	case errcodes.QueueEmpty:
		return view.QueueEmptyNote
	case errcodes.InvalidLot, errcodes.InvalidPrice,
		errcodes.InvalidIncrement, errcodes.InvalidDuration:
		return view.AddMissingArgument
	default:
		return view.SomethingWrong
	}
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}

func (h *Handler) send(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	return err
}
