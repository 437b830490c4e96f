package roma

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"status": "healthy", "version": "0.1.0"}`)
	}))
	defer srv.Close()

	health, err := NewClient(Config{BaseURL: srv.URL + "/"}).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "0.1.0", health.Version)
}

func TestClient_HealthFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"detail": "warming up"}`)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Contains(t, apiErr.Body, "warming up")

	srv.Close()
	_, err = NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}).Health(context.Background())
	assert.Error(t, err)
}

func TestClient_Execute(t *testing.T) {
	c := NewClient(Config{APIKey: "roma-key"})
	session := c.SessionID()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/executions", r.URL.Path)
		assert.Equal(t, "Bearer roma-key", r.Header.Get("Authorization"))
		assert.Equal(t, session, r.Header.Get("X-Session-ID"))

		var body struct {
			Goal          string `json:"goal"`
			ConfigProfile string `json:"config_profile"`
			Metadata      struct {
				ConversationHistory []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"conversation_history"`
				CurrentSession  string `json:"current_session"`
				UserPreferences struct {
					FocusAreas []string `json:"focus_areas"`
				} `json:"user_preferences"`
			} `json:"metadata"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, strings.HasSuffix(body.Goal, "please answer this question: What is DePIN?"))
		assert.Equal(t, "general", body.ConfigProfile)
		assert.Equal(t, session, body.Metadata.CurrentSession)
		assert.Len(t, body.Metadata.ConversationHistory, 1)
		assert.Equal(t, FocusAreas, body.Metadata.UserPreferences.FocusAreas)

		writeJSON(w, http.StatusOK, `{"execution_id": "exec-42"}`)
	}))
	defer srv.Close()
	c.rest.SetBaseURL(srv.URL)

	history := []models.ConversationTurn{{Role: models.RoleUser, Content: "hi"}}
	execution, err := c.Execute(context.Background(), "What is DePIN?", history)
	require.NoError(t, err)
	assert.Equal(t, "exec-42", execution.ExecutionID)
}

func TestClient_ResetSession(t *testing.T) {
	c := NewClient(Config{})
	first := c.SessionID()
	assert.True(t, strings.HasPrefix(first, "session_"))

	second := c.ResetSession()
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, c.SessionID())
}

func TestClient_ExecuteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "status",
			status: http.StatusBadGateway,
			body:   `{"detail": "no workers"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusBadGateway, apiErr.Status)
			},
		},
		{
			name:   "empty",
			status: http.StatusOK,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyExecution)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).Execute(context.Background(), "q", nil)
			tt.check(t, err)
		})
	}
}

func TestResponder_Respond(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		fallback   bool
		confidence float64
		sources    []string
		contains   string
		followUps  int
	}{
		{
			name:       "queued execution",
			status:     http.StatusOK,
			body:       `{"execution_id": "exec-7"}`,
			confidence: QueuedConfidence,
			sources:    queuedSources,
			contains:   "Execution ID: exec-7",
			followUps:  3,
		},
		{
			name:       "direct answer",
			status:     http.StatusOK,
			body:       `{"result": "Nodes sit at the edge.", "sources": ["ROMA Planner"]}`,
			confidence: DirectConfidence,
			sources:    []string{"ROMA Planner"},
			contains:   "Nodes sit at the edge.",
		},
		{
			name:       "direct answer with defaults",
			status:     http.StatusOK,
			body:       `{"answer": "Edge GPUs.", "confidence": 0.7}`,
			confidence: 0.7,
			sources:    directSources,
			contains:   "Edge GPUs.",
		},
		{
			name:       "unavailable",
			status:     http.StatusInternalServerError,
			body:       `{"detail": "boom"}`,
			fallback:   true,
			confidence: FallbackConfidence,
			sources:    fallbackSources,
			contains:   "ROMA-DSPy system is running",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			r := NewResponder(NewClient(Config{BaseURL: srv.URL}), nil, zap.NewNop())
			result := r.Respond(context.Background(), "how do nodes work?", nil)

			assert.Equal(t, tt.fallback, result.Fallback)
			assert.Equal(t, tt.confidence, result.Confidence)
			assert.Equal(t, tt.sources, result.Sources)
			assert.Contains(t, result.Answer, tt.contains)
			assert.Len(t, result.FollowUpQuestions, tt.followUps)
			if tt.fallback {
				assert.NotEmpty(t, result.Err)
			}
		})
	}
}
