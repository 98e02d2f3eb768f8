package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// updateTimeout bounds the work done for a single update
const updateTimeout = 30 * time.Second

// API is the part of the Telegram client the bot uses
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot long-polls Telegram and feeds updates to the Handler
type Bot struct {
	api         API
	handler     *Handler
	queue       *KeyedQueue
	pollTimeout int
	logger      *zap.Logger
}

// New creates a Bot. Updates from one user are processed one at a time in
// arrival order; workers bounds how many users are served concurrently.
func New(api API, handler *Handler, workers, pollTimeout int, logger *zap.Logger) *Bot {
	return &Bot{
		api:         api,
		handler:     handler,
		queue:       NewKeyedQueue(workers),
		pollTimeout: pollTimeout,
		logger:      logger.Named("bot"),
	}
}

// Run polls until ctx is cancelled, then drains queued updates
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("Bot polling started", zap.Int("poll_timeout", b.pollTimeout))
	defer b.queue.Close()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.Dispatch(ctx, update)
		}
	}
}

// Dispatch queues one update behind earlier updates from the same user
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	from := update.SentFrom()
	if from == nil {
		return
	}
	err := b.queue.Submit(from.ID, func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic while handling update",
					zap.Int("update_id", update.UpdateID),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()

		updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), updateTimeout)
		defer cancel()
		b.process(updateCtx, update)
	})
	if err != nil {
		b.logger.Warn("Update dropped", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

func profileOf(u *tgbotapi.User) service.TelegramProfile {
	return service.TelegramProfile{
		TelegramID: u.ID,
		Username:   u.UserName,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

func (b *Bot) process(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.processCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.processMessage(ctx, update.Message)
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	cmd, err := ParseMessage(msg.Text)
	if err != nil {
		cmd = Command{Intent: IntentMainMenu}
	}

	view := b.respond(ctx, profileOf(msg.From), cmd)
	if view.Silent {
		if view.Alert != "" {
			b.send(tgbotapi.NewMessage(msg.Chat.ID, view.Alert))
		}
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, view.Text)
	if view.Keyboard != nil {
		reply.ReplyMarkup = *view.Keyboard
	}
	b.send(reply)
}

func (b *Bot) processCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	cmd, err := ParseCallback(query.Data)
	var view View
	if err != nil {
		b.logger.Debug("Unknown callback", zap.String("data", query.Data))
		view = View{Silent: true, Alert: noticeText[NoticeSessionExpired]}
	} else {
		view = b.respond(ctx, profileOf(query.From), cmd)
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, view.Alert)); err != nil {
		b.logger.Debug("Failed to answer callback", zap.Error(err))
	}
	if view.Silent || query.Message == nil {
		return
	}

	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID
	if view.Keyboard != nil {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, view.Text, *view.Keyboard))
	} else {
		b.send(tgbotapi.NewEditMessageText(chatID, messageID, view.Text))
	}
}

func (b *Bot) respond(ctx context.Context, profile service.TelegramProfile, cmd Command) View {
	resp, err := b.handler.Handle(ctx, profile, cmd)
	if err != nil {
		b.logger.Error("Failed to handle command",
			zap.Int64("telegram_id", profile.TelegramID),
			zap.Int("intent", int(cmd.Intent)),
			zap.Error(err),
		)
		return View{Silent: true, Alert: noticeText[NoticeFailed]}
	}
	return Render(resp)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "message is not modified") {
			return
		}
		b.logger.Warn("Failed to send message", zap.Error(err))
	}
}
