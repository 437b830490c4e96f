package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gotwitter "github.com/g8rswimmer/go-twitter/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/xaenox/mawari-agent/internal/models"
)

const DefaultBaseURL = "https://api.twitter.com"

var (
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded
	ErrMalformedResponse = errors.New("twitter: malformed response")
	// ErrNoCredentials means neither a bearer token nor a key/secret pair is configured
	ErrNoCredentials = errors.New("twitter: no credentials configured")
)

// APIError is a non-2xx answer, or a 2xx answer carrying an errors array
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter: status %d: %s", e.Status, e.Body)
}

type Config struct {
	BaseURL     string
	BearerToken string
	APIKey      string
	APISecret   string
	Timeout     time.Duration
}

// Client is a read-only client for the v2 recent search API
type Client struct {
	api         *gotwitter.Client
	httpClient  *http.Client
	credentials *clientcredentials.Config

	mu          sync.RWMutex
	bearerToken string
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		bearerToken: cfg.BearerToken,
	}
	if cfg.APIKey != "" && cfg.APISecret != "" {
		c.credentials = &clientcredentials.Config{
			ClientID:     cfg.APIKey,
			ClientSecret: cfg.APISecret,
			TokenURL:     baseURL + "/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
	}
	c.api = &gotwitter.Client{
		Authorizer: bearer{client: c},
		Client:     c.httpClient,
		Host:       baseURL,
	}
	return c
}

// bearer signs library requests with whatever token the client currently holds
type bearer struct {
	client *Client
}

func (b bearer) Add(req *http.Request) {
	b.client.mu.RLock()
	defer b.client.mu.RUnlock()
	req.Header.Add("Authorization", "Bearer "+b.client.bearerToken)
}

// Configured reports whether a bearer token or a key/secret pair is available
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bearerToken != "" || c.credentials != nil
}

// token makes sure a bearer token is held, exchanging the key/secret for one on first use
func (c *Client) token(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bearerToken != "" {
		return nil
	}
	if c.credentials == nil {
		return ErrNoCredentials
	}

	tok, err := c.credentials.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return fmt.Errorf("exchange bearer token: %w", &APIError{
				Status: retrieveErr.Response.StatusCode,
				Body:   strings.TrimSpace(string(retrieveErr.Body)),
			})
		}
		return fmt.Errorf("exchange bearer token: %w", err)
	}
	c.bearerToken = tok.AccessToken
	return nil
}

// Verify checks the credentials against GET /2/users/me
func (c *Client) Verify(ctx context.Context) error {
	if err := c.token(ctx); err != nil {
		return err
	}
	if _, err := c.api.AuthUserLookup(ctx, gotwitter.UserLookupOpts{}); err != nil {
		return fmt.Errorf("verify credentials: %w", translate(err))
	}
	return nil
}

var searchOpts = gotwitter.TweetRecentSearchOpts{
	Expansions: []gotwitter.Expansion{
		gotwitter.ExpansionAuthorID,
		gotwitter.ExpansionAttachmentsMediaKeys,
	},
	TweetFields: []gotwitter.TweetField{
		gotwitter.TweetFieldCreatedAt,
		gotwitter.TweetFieldAuthorID,
		gotwitter.TweetFieldPublicMetrics,
		gotwitter.TweetFieldEntities,
		gotwitter.TweetFieldAttachments,
	},
	UserFields: []gotwitter.UserField{
		gotwitter.UserFieldUserName,
		gotwitter.UserFieldName,
		gotwitter.UserFieldProfileImageURL,
	},
	MediaFields: []gotwitter.MediaField{
		gotwitter.MediaFieldType,
		gotwitter.MediaFieldURL,
		gotwitter.MediaFieldPreviewImageURL,
	},
}

// SearchRecent runs one recent-search query and joins authors and media into posts
func (c *Client) SearchRecent(ctx context.Context, query string, maxResults int) ([]models.SocialPost, error) {
	if err := c.token(ctx); err != nil {
		return nil, err
	}

	opts := searchOpts
	opts.MaxResults = maxResults
	resp, err := c.api.TweetRecentSearch(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, translate(err))
	}
	if resp.Raw == nil {
		return []models.SocialPost{}, nil
	}
	if len(resp.Raw.Errors) > 0 && len(resp.Raw.Tweets) == 0 {
		first := resp.Raw.Errors[0]
		return nil, fmt.Errorf("search %q: %w", query, &APIError{
			Status: http.StatusOK,
			Body:   first.Title + ": " + first.Detail,
		})
	}

	users := make(map[string]*gotwitter.UserObj)
	mediaByKey := make(map[string]*gotwitter.MediaObj)
	if inc := resp.Raw.Includes; inc != nil {
		for _, u := range inc.Users {
			if u != nil {
				users[u.ID] = u
			}
		}
		for _, m := range inc.Media {
			if m != nil {
				mediaByKey[m.Key] = m
			}
		}
	}

	posts := make([]models.SocialPost, 0, len(resp.Raw.Tweets))
	for _, t := range resp.Raw.Tweets {
		if t == nil {
			continue
		}
		posts = append(posts, toPost(t, users, mediaByKey))
	}
	return posts, nil
}

func toPost(t *gotwitter.TweetObj, users map[string]*gotwitter.UserObj, mediaByKey map[string]*gotwitter.MediaObj) models.SocialPost {
	author := models.Author{ID: t.AuthorID, Handle: "unknown", DisplayName: "Unknown User"}
	if u, ok := users[t.AuthorID]; ok {
		author.Handle = u.UserName
		author.DisplayName = u.Name
		author.AvatarURL = u.ProfileImageURL
	}

	created, _ := time.Parse(time.RFC3339, t.CreatedAt)
	post := models.SocialPost{
		ID:        t.ID,
		Text:      t.Text,
		Author:    author,
		CreatedAt: created,
	}
	if pm := t.PublicMetrics; pm != nil {
		post.Engagement = models.Engagement{
			Likes:   pm.Likes,
			Reposts: pm.Retweets,
			Replies: pm.Replies,
		}
		// impressions are only reported for some tweets
		if pm.Impressions > 0 {
			views := pm.Impressions
			post.Engagement.Views = &views
		}
	}
	if t.Attachments != nil {
		for _, key := range t.Attachments.MediaKeys {
			m, ok := mediaByKey[key]
			if !ok {
				continue
			}
			post.Media = append(post.Media, models.Media{
				Kind:            models.MediaKind(m.Type),
				URL:             m.URL,
				PreviewImageURL: m.PreviewImageURL,
			})
		}
	}
	if e := t.Entities; e != nil {
		for _, u := range e.URLs {
			post.Links = append(post.Links, models.Link{DisplayURL: u.DisplayURL, ExpandedURL: u.ExpandedURL})
		}
		for _, h := range e.HashTags {
			post.Tags = append(post.Tags, h.Tag)
		}
		for _, m := range e.Mentions {
			post.Mentions = append(post.Mentions, m.UserName)
		}
	}
	return post
}

// translate maps go-twitter errors onto the package's error types
func translate(err error) error {
	var errResp *gotwitter.ErrorResponse
	if errors.As(err, &errResp) {
		body := errResp.Title
		if errResp.Detail != "" {
			body += ": " + errResp.Detail
		}
		return &APIError{Status: errResp.StatusCode, Body: body}
	}
	var httpErr *gotwitter.HTTPError
	if errors.As(err, &httpErr) {
		return &APIError{Status: httpErr.StatusCode, Body: httpErr.Status}
	}
	var decodeErr *gotwitter.ResponseDecodeError
	if errors.As(err, &decodeErr) {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr.Err)
	}
	return err
}
