package bot

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/community"
	"github.com/xaenox/mawari-agent/internal/models"
	"github.com/xaenox/mawari-agent/internal/netstats"
	"github.com/xaenox/mawari-agent/internal/storage"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	sendErr error
	updates chan tgbotapi.Update
	stopped bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tgbotapi.MessageConfig, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeAssistant struct {
	mu        sync.Mutex
	answer    string
	histories [][]models.ConversationTurn
}

func (f *fakeAssistant) Respond(_ context.Context, _ string, history []models.ConversationTurn) models.ProviderResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories = append(f.histories, history)
	return models.ProviderResult{Answer: f.answer, Confidence: 0.9}
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: 7},
		Text:      text,
	}
}

func commandMessage(chatID int64, command string) *tgbotapi.Message {
	msg := textMessage(chatID, command)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return msg
}

func newTestBot(t *testing.T, deps Deps) (*Bot, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	b := newBot(api, deps, zap.NewNop())
	b.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return b, api
}

func seededAggregator(t *testing.T) *community.Aggregator {
	t.Helper()
	agg := community.NewAggregator(
		community.NewEventFeed(nil, nil, zap.NewNop()),
		community.NewPostFeed(nil, nil, zap.NewNop()),
	)
	agg.Initialize(context.Background())
	return agg
}

func TestHandleMessage_KeepsSessionPerChat(t *testing.T) {
	assistant := &fakeAssistant{answer: "Mawari is an immersive streaming network."}
	store := storage.NewMemoryStorage()
	b, api := newTestBot(t, Deps{Assistant: assistant, Sessions: store})
	ctx := context.Background()

	b.handleMessage(ctx, textMessage(42, "What is Mawari?"))
	b.handleMessage(ctx, textMessage(42, "And DePIN?"))
	b.handleMessage(ctx, textMessage(99, "Other chat"))

	require.Len(t, assistant.histories, 3)
	assert.Empty(t, assistant.histories[0])
	assert.Len(t, assistant.histories[1], 2)
	assert.Empty(t, assistant.histories[2])

	turns, err := store.RecentTurns(ctx, "telegram:42", 0)
	require.NoError(t, err)
	assert.Len(t, turns, 4)

	sent := api.messages()
	require.Len(t, sent, 3)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Equal(t, 10, sent[0].ReplyToMessageID)
	assert.Equal(t, "Mawari is an immersive streaming network.", sent[0].Text)
}

func TestHandleMessage_UsesCaption(t *testing.T) {
	assistant := &fakeAssistant{answer: "ok"}
	b, api := newTestBot(t, Deps{Assistant: assistant})

	msg := textMessage(1, "")
	msg.Caption = "what is this node?"
	b.handleMessage(context.Background(), msg)

	require.Len(t, assistant.histories, 1)
	assert.Len(t, api.messages(), 1)
}

func TestHandleMessage_EmptyText(t *testing.T) {
	assistant := &fakeAssistant{answer: "ok"}
	b, api := newTestBot(t, Deps{Assistant: assistant})

	b.handleMessage(context.Background(), textMessage(1, "   "))

	assert.Empty(t, assistant.histories)
	require.Len(t, api.messages(), 1)
	assert.Contains(t, api.messages()[0].Text, "Send me a question")
}

func TestCommands(t *testing.T) {
	store := storage.NewMemoryStorage()
	deps := Deps{
		Assistant: &fakeAssistant{answer: "ok"},
		Sessions:  store,
		Community: seededAggregator(t),
		Network:   netstats.NewSampler(rand.New(rand.NewSource(1))),
	}

	tests := []struct {
		command   string
		contains  string
		parseMode string
	}{
		{"/start", "Welcome to MAWARAI", ""},
		{"/help", "/events", ""},
		{"/events", "Community AMA Session", tgbotapi.ModeMarkdownV2},
		{"/tweets", "@MawariNetwork", ""},
		{"/stats", "Community posts: 4", ""},
		{"/reset", "Conversation history cleared", ""},
		{"/dance", "Unknown command", ""},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			b, api := newTestBot(t, deps)
			b.handleMessage(context.Background(), commandMessage(5, tt.command))

			sent := api.messages()
			require.Len(t, sent, 1)
			assert.Contains(t, sent[0].Text, tt.contains)
			assert.Equal(t, tt.parseMode, sent[0].ParseMode)
		})
	}
}

func TestCommands_WithoutCommunity(t *testing.T) {
	b, api := newTestBot(t, Deps{Assistant: &fakeAssistant{}})

	b.handleMessage(context.Background(), commandMessage(5, "/events"))
	b.handleMessage(context.Background(), commandMessage(5, "/stats"))
	b.handleMessage(context.Background(), commandMessage(5, "/reset"))

	sent := api.messages()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[0].Text, "not available")
	assert.Contains(t, sent[1].Text, "not available")
	assert.Contains(t, sent[2].Text, "no stored history")
}

func TestReset_ClearsSession(t *testing.T) {
	store := storage.NewMemoryStorage()
	b, _ := newTestBot(t, Deps{Assistant: &fakeAssistant{answer: "ok"}, Sessions: store})
	ctx := context.Background()

	b.handleMessage(ctx, textMessage(42, "hello"))
	b.handleMessage(ctx, commandMessage(42, "/reset"))

	turns, err := store.RecentTurns(ctx, "telegram:42", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSendFailureIsLoggedOnly(t *testing.T) {
	b, api := newTestBot(t, Deps{Assistant: &fakeAssistant{answer: "ok"}})
	api.sendErr = errors.New("telegram down")

	assert.NotPanics(t, func() {
		b.handleMessage(context.Background(), textMessage(1, "hi"))
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	assistant := &fakeAssistant{answer: "ok"}
	b, api := newTestBot(t, Deps{Assistant: assistant})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	api.updates <- tgbotapi.Update{Message: textMessage(1, "hi")}
	api.updates <- tgbotapi.Update{}
	require.Eventually(t, func() bool { return len(api.messages()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `Tech Talk: DePIN \(v2\.0\)\!`, escapeMarkdown("Tech Talk: DePIN (v2.0)!"))
	assert.Equal(t, `\#ama`, escapeMarkdown("#ama"))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Empty(t, splitMessage("", 10))

	chunks := splitMessage("line one\nline two\nline three", 12)
	assert.Equal(t, []string{"line one", "line two", "line three"}, chunks)

	long := strings.Repeat("é", 25)
	chunks = splitMessage(long, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len([]rune(chunks[0])))
	assert.Equal(t, 5, len([]rune(chunks[2])))
}
