package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/community"
	"github.com/xaenox/mawari-agent/internal/models"
	"github.com/xaenox/mawari-agent/internal/netstats"
	"github.com/xaenox/mawari-agent/internal/storage"
)

// MaxMessageLength is Telegram's limit for a single text message
const MaxMessageLength = 4096

// API is the part of *tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Assistant interface {
	Respond(ctx context.Context, query string, history []models.ConversationTurn) models.ProviderResult
}

// Deps are optional except Assistant
type Deps struct {
	Assistant Assistant
	Sessions  storage.Storage
	Community *community.Aggregator
	Network   *netstats.Sampler
}

// Bot relays Telegram chats to the assistant, one stored session per chat
type Bot struct {
	api    API
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

func New(token string, deps Deps, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return newBot(api, deps, logger), nil
}

func newBot(api API, deps Deps, logger *zap.Logger) *Bot {
	return &Bot{api: api, deps: deps, logger: logger, now: time.Now}
}

// Run handles updates until ctx is cancelled, then waits for in-flight replies
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(message *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, message)
			}(update.Message)
		}
	}
}

func sessionID(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	content = strings.TrimSpace(content)
	if content == "" {
		b.sendMessage(message.Chat.ID, "Send me a question about Mawari Network and I'll do my best to answer.")
		return
	}

	session := sessionID(message.Chat.ID)
	var history []models.ConversationTurn
	if b.deps.Sessions != nil {
		turns, err := b.deps.Sessions.RecentTurns(ctx, session, 0)
		if err != nil {
			b.logger.Warn("Failed to load chat history",
				zap.Error(err),
				zap.Int64("chat_id", message.Chat.ID))
		}
		history = turns
	}

	result := b.deps.Assistant.Respond(ctx, content, history)

	if b.deps.Sessions != nil {
		now := b.now().UTC()
		err := b.deps.Sessions.AppendTurns(ctx, session,
			models.ConversationTurn{Role: models.RoleUser, Content: content, CreatedAt: now},
			models.ConversationTurn{Role: models.RoleAssistant, Content: result.Answer, CreatedAt: now},
		)
		if err != nil {
			b.logger.Warn("Failed to store chat turns",
				zap.Error(err),
				zap.Int64("chat_id", message.Chat.ID))
		}
	}

	b.sendReply(message.Chat.ID, message.MessageID, result.Answer)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "events":
		b.handleEvents(message)
	case "tweets":
		b.handleTweets(message)
	case "stats":
		b.handleStats(message)
	case "reset":
		b.handleReset(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to MAWARAI! 🌐
I'm the Mawari Network assistant. Ask me anything about immersive streaming, DePIN, or running a node.

Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/events - Upcoming community events
/tweets - Latest posts about Mawari
/stats - Community and network stats
/reset - Forget this conversation

Any other message is answered by the assistant.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleEvents(message *tgbotapi.Message) {
	if b.deps.Community == nil {
		b.sendMessage(message.Chat.ID, "Community events are not available right now.")
		return
	}
	events := b.deps.Community.Events.UpcomingEvents(5)
	if len(events) == 0 {
		b.sendMessage(message.Chat.ID, "There are no upcoming events yet.")
		return
	}

	response := "*Upcoming events:*\n\n"
	for _, ev := range events {
		response += fmt.Sprintf("*%s*\n", escapeMarkdown(ev.Title))
		response += fmt.Sprintf("_%s_ %s\n\n",
			escapeMarkdown(ev.StartTime.UTC().Format("Jan 2, 15:04 UTC")),
			escapeMarkdown("#"+string(ev.Category)))
	}
	b.sendMarkdown(message.Chat.ID, response)
}

func (b *Bot) handleTweets(message *tgbotapi.Message) {
	if b.deps.Community == nil {
		b.sendMessage(message.Chat.ID, "Community posts are not available right now.")
		return
	}
	posts := b.deps.Community.Posts.ListPosts(3)
	if len(posts) == 0 {
		b.sendMessage(message.Chat.ID, "There are no posts yet.")
		return
	}

	var sb strings.Builder
	for _, p := range posts {
		fmt.Fprintf(&sb, "@%s: %s\n❤️ %d  🔁 %d  💬 %d\n\n",
			p.Author.Handle, p.Text, p.Engagement.Likes, p.Engagement.Reposts, p.Engagement.Replies)
	}
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleStats(message *tgbotapi.Message) {
	var sb strings.Builder
	if b.deps.Community != nil {
		s := b.deps.Community.Posts.EngagementSummary()
		fmt.Fprintf(&sb, "Community posts: %d\nLikes: %d\nReposts: %d\nReplies: %d\nViews: %d\nAverage engagement: %d\n",
			s.TotalPosts, s.TotalLikes, s.TotalReposts, s.TotalReplies, s.TotalViews, s.AverageEngagement)
	}
	if b.deps.Network != nil {
		n := b.deps.Network.Latest()
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Bandwidth: %.1f Mbps\nLatency: %.1f ms\nActive nodes: %d\nConnected users: %d\n",
			n.BandwidthMbps, n.LatencyMs, n.ActiveNodes, n.ConnectedUsers)
	}
	if sb.Len() == 0 {
		b.sendMessage(message.Chat.ID, "Stats are not available right now.")
		return
	}
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleReset(ctx context.Context, message *tgbotapi.Message) {
	if b.deps.Sessions == nil {
		b.sendMessage(message.Chat.ID, "Nothing to forget, this chat has no stored history.")
		return
	}
	if err := b.deps.Sessions.DeleteSession(ctx, sessionID(message.Chat.ID)); err != nil {
		b.logger.Error("Failed to reset chat history",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't reset this conversation.")
		return
	}
	b.sendMessage(message.Chat.ID, "Conversation history cleared.")
}

// escapeMarkdown escapes the characters reserved by MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// splitMessage cuts text into chunks of at most limit runes, preferring line breaks
func splitMessage(text string, limit int) []string {
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		cut := limit
		if i := strings.LastIndex(string(runes[:limit]), "\n"); i > 0 {
			cut = utf8.RuneCountInString(string(runes[:limit])[:i])
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		text = strings.TrimLeft(string(runes[cut:]), "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func (b *Bot) sendReply(chatID int64, replyToID int, text string) {
	for i, chunk := range splitMessage(text, MaxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == 0 {
			msg.ReplyToMessageID = replyToID
		}
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("Failed to send reply",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
			return
		}
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.sendMessage(chatID, "⚠️ "+text)
}
