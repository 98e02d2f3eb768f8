package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageSender is the part of the bot API used to reach the operator
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier messages the administrator's chat
type TelegramNotifier struct {
	sender MessageSender
	chatID int64
}

func NewTelegramNotifier(sender MessageSender, adminChatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: adminChatID}
}

func (n *TelegramNotifier) NotifyOrderPlaced(ctx context.Context, s OrderSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, s.Text())); err != nil {
		return fmt.Errorf("failed to message admin about order #%d: %w", s.Number, err)
	}
	return nil
}
