package roma

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/xaenox/mawari-agent/internal/models"
)

const DefaultBaseURL = "http://localhost:8000"

// ErrEmptyExecution means ROMA accepted the goal but sent neither an execution id nor an answer
var ErrEmptyExecution = errors.New("roma: execution response carries no id and no answer")

// APIError is a non-2xx answer from the ROMA API
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("roma: status %d: %s", e.Status, e.Body)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FocusAreas steer every execution towards Mawari topics
var FocusAreas = []string{
	"Mawari Network technology",
	"Decentralized infrastructure",
	"XR streaming",
	"AI-powered experiences",
	"Near-zero latency networking",
	"Global node deployment",
	"Bandwidth optimization",
	"Immersive internet",
}

// Health is the body of GET /health
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Execution is the body of POST /api/v1/executions. ROMA either queues the
// goal and returns an id, or answers directly.
type Execution struct {
	ExecutionID       string   `json:"execution_id"`
	Result            string   `json:"result"`
	Answer            string   `json:"answer"`
	Confidence        float64  `json:"confidence"`
	Sources           []string `json:"sources"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Text is the direct answer, if any
func (e *Execution) Text() string {
	if e.Result != "" {
		return e.Result
	}
	return e.Answer
}

type historyMessage struct {
	Role      models.Role `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

type executionRequest struct {
	Goal          string            `json:"goal"`
	ConfigProfile string            `json:"config_profile"`
	Metadata      executionMetadata `json:"metadata"`
}

type executionMetadata struct {
	ConversationHistory []historyMessage `json:"conversation_history"`
	CurrentSession      string           `json:"current_session"`
	UserPreferences     struct {
		FocusAreas []string `json:"focus_areas"`
	} `json:"user_preferences"`
}

// Client talks to a ROMA (Sentient AGI) deployment. Every execution carries the current session id.
type Client struct {
	baseURL string
	rest    *resty.Client

	mu        sync.RWMutex
	sessionID string
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
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rest.SetAuthToken(cfg.APIKey)
	}
	return &Client{
		baseURL:   baseURL,
		rest:      rest,
		sessionID: newSessionID(),
	}
}

func newSessionID() string {
	return "session_" + uuid.NewString()
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// ResetSession starts a new ROMA session and returns its id
func (c *Client) ResetSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = newSessionID()
	return c.sessionID
}

// Health is the connectivity check: GET /health
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&health).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("roma health check: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("roma health check: %w", &APIError{Status: resp.StatusCode(), Body: strings.TrimSpace(resp.String())})
	}
	return &health, nil
}

// Execute submits the query as a goal for the multi-agent system
func (c *Client) Execute(ctx context.Context, query string, history []models.ConversationTurn) (*Execution, error) {
	session := c.SessionID()

	payload := executionRequest{
		Goal:          "As a Mawari Network expert assistant, please answer this question: " + query,
		ConfigProfile: "general",
	}
	payload.Metadata.CurrentSession = session
	payload.Metadata.UserPreferences.FocusAreas = FocusAreas
	payload.Metadata.ConversationHistory = make([]historyMessage, 0, len(history))
	for _, turn := range history {
		payload.Metadata.ConversationHistory = append(payload.Metadata.ConversationHistory, historyMessage{
			Role:      turn.Role,
			Content:   turn.Content,
			Timestamp: turn.CreatedAt,
		})
	}

	var execution Execution
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("X-Session-ID", session).
		SetBody(payload).
		SetResult(&execution).
		Post("/api/v1/executions")
	if err != nil {
		return nil, fmt.Errorf("roma execution: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("roma execution: %w", &APIError{Status: resp.StatusCode(), Body: strings.TrimSpace(resp.String())})
	}
	if execution.ExecutionID == "" && execution.Text() == "" {
		return nil, ErrEmptyExecution
	}
	return &execution, nil
}
