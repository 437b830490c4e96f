package models

import "time"

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ConversationTurn is a single message of a chat session
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelParameters are the sampling knobs sent with every completion request
type ModelParameters struct {
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

// ProviderRequest is built fresh for every call and never mutated after dispatch
type ProviderRequest struct {
	SystemPrompt    string             `json:"system_prompt"`
	History         []ConversationTurn `json:"history"`
	UserQuery       string             `json:"user_query"`
	ModelParameters ModelParameters    `json:"model_parameters"`
}

// ProviderResult is what the assistant hands back to callers.
// Confidence is a fixed policy value, not a calibrated score.
type ProviderResult struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
	TokensUsed int      `json:"tokens_used"`
	Model      string   `json:"model"`
	LatencyMs  int64    `json:"latency_ms"`
	Fallback   bool     `json:"fallback"`
	Err        string   `json:"error,omitempty"`

	// FollowUpQuestions is only filled by backends that suggest them
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
}
