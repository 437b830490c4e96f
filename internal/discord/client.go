package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded
var ErrMalformedResponse = errors.New("discord: malformed response")

// APIError is a non-2xx answer from the Discord REST API
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord: status %d: %s", e.Status, e.Body)
}

type Config struct {
	BotToken string
	GuildID  string
	Timeout  time.Duration
	// HTTPClient replaces the session's HTTP client, Timeout is then ignored
	HTTPClient *http.Client
}

// Client is a read-only view of one guild over a discordgo REST session.
// The gateway is never opened.
type Client struct {
	session *discordgo.Session
	guildID string
}

func NewClient(cfg Config) *Client {
	c := &Client{guildID: cfg.GuildID}
	if cfg.BotToken == "" {
		return c
	}

	// a bot token never fails here; New opens no connection
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return c
	}
	session.ShouldRetryOnRateLimit = false
	session.MaxRestRetries = 0
	if cfg.HTTPClient != nil {
		session.Client = cfg.HTTPClient
	} else {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		session.Client = &http.Client{Timeout: timeout}
	}
	c.session = session
	return c
}

// Configured reports whether both the bot token and guild id are set
func (c *Client) Configured() bool {
	return c.session != nil && c.guildID != ""
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type Embed struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url,omitempty"`
	Color       int         `json:"color,omitempty"`
	Image       *EmbedImage `json:"image,omitempty"`
	Thumbnail   *EmbedImage `json:"thumbnail,omitempty"`
}

type Emoji struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Reaction struct {
	Count int   `json:"count"`
	Emoji Emoji `json:"emoji"`
}

type Message struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channel_id"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	Author    *User      `json:"author,omitempty"`
	Embeds    []Embed    `json:"embeds,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}

var errNotConfigured = errors.New("discord: bot token not configured")

// CurrentUser checks the bot token against GET /users/@me
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if c.session == nil {
		return nil, errNotConfigured
	}
	u, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", translate(err))
	}
	return convertUser(u), nil
}

func (c *Client) GuildChannels(ctx context.Context) ([]Channel, error) {
	if c.session == nil {
		return nil, errNotConfigured
	}
	channels, err := c.session.GuildChannels(c.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list guild channels: %w", translate(err))
	}
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		out = append(out, Channel{ID: ch.ID, Name: ch.Name, Type: int(ch.Type)})
	}
	return out, nil
}

// ChannelMessages returns the newest messages of a channel, newest first
func (c *Client) ChannelMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	if c.session == nil {
		return nil, errNotConfigured
	}
	messages, err := c.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list messages of channel %s: %w", channelID, translate(err))
	}
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		out = append(out, convertMessage(m))
	}
	return out, nil
}

// ChannelMessagesByName resolves a channel by name in the guild and lists its messages.
// A channel that does not exist yields no messages and no error.
func (c *Client) ChannelMessagesByName(ctx context.Context, name string, limit int) ([]Message, error) {
	channels, err := c.GuildChannels(ctx)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch.Name == name {
			return c.ChannelMessages(ctx, ch.ID, limit)
		}
	}
	return nil, nil
}

// translate maps discordgo errors onto the package's error types
func translate(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return &APIError{
			Status: restErr.Response.StatusCode,
			Body:   strings.TrimSpace(string(restErr.ResponseBody)),
		}
	}
	if errors.Is(err, discordgo.ErrJSONUnmarshal) {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return err
}

func convertUser(u *discordgo.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Username: u.Username, Bot: u.Bot}
}

func convertMessage(m *discordgo.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Author:    convertUser(m.Author),
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		embed := Embed{
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
			Color:       e.Color,
		}
		if e.Image != nil {
			embed.Image = &EmbedImage{URL: e.Image.URL}
		}
		if e.Thumbnail != nil {
			embed.Thumbnail = &EmbedImage{URL: e.Thumbnail.URL}
		}
		msg.Embeds = append(msg.Embeds, embed)
	}
	for _, r := range m.Reactions {
		if r == nil {
			continue
		}
		reaction := Reaction{Count: r.Count}
		if r.Emoji != nil {
			reaction.Emoji = Emoji{ID: r.Emoji.ID, Name: r.Emoji.Name}
		}
		msg.Reactions = append(msg.Reactions, reaction)
	}
	return msg
}
