package bot

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	updates   chan tgbotapi.Update
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }
func (f *fakeAPI) StopReceivingUpdates()                                         {}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestBot() (*Bot, *fakeAPI, *handlerHarness) {
	h := newHandlerHarness()
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
	return New(api, h.handler, 2, 1, zap.NewNop()), api, h
}

func TestStartMessageSendsMainMenu(t *testing.T) {
	b, api, _ := newTestBot()

	b.process(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: customerID, FirstName: "Ann"},
		Chat: &tgbotapi.Chat{ID: 500},
		Text: "/start",
	}})

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(500), msg.ChatID)
	assert.Contains(t, msg.Text, "Welcome")
}

func TestCallbackEditsMessageAndAnswers(t *testing.T) {
	b, api, h := newTestBot()

	b.process(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: customerID},
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: 500}},
		Data:    Command{Intent: IntentAddToCart, ID: h.phone.ID}.Data(),
	}})

	require.Len(t, api.requested, 1)
	answer := api.requested[0].(tgbotapi.CallbackConfig)
	assert.Equal(t, noticeText[NoticeAddedToCart], answer.Text)
	assert.Empty(t, api.sent, "adding to cart keeps the product screen")

	b.process(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-2",
		From:    &tgbotapi.User{ID: customerID},
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: 500}},
		Data:    "cart",
	}})

	require.Len(t, api.sent, 1)
	edit := api.sent[0].(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, 9, edit.MessageID)
	assert.Contains(t, edit.Text, "iPhone")
}

func TestRunDrainsUpdatesUntilCancelled(t *testing.T) {
	b, api, h := newTestBot()
	h.orders.stats = &domain.OrderStats{ByStatus: map[domain.OrderStatus]int{}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	for i := 0; i < 3; i++ {
		api.updates <- tgbotapi.Update{UpdateID: i, Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: customerID},
			Chat: &tgbotapi.Chat{ID: 500},
			Text: "/menu",
		}}
	}
	close(api.updates)

	require.NoError(t, <-done)
	cancel()

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Len(t, api.sent, 3)
}
