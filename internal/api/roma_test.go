package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/assistant"
	"github.com/xaenox/mawari-agent/internal/fallback"
	"github.com/xaenox/mawari-agent/internal/models"
	"github.com/xaenox/mawari-agent/internal/roma"
)

type romaReply struct {
	Success           bool     `json:"success"`
	Answer            string   `json:"answer"`
	Sources           []string `json:"sources"`
	Confidence        float64  `json:"confidence"`
	ModelUsed         string   `json:"model_used"`
	Error             string   `json:"error"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Framework         string   `json:"framework"`
}

// newRomaServer fakes a ROMA deployment; healthy toggles both endpoints
func newRomaServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"detail": "down"}`))
			return
		}
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status": "healthy", "version": "0.1.0"}`))
		case "/api/v1/executions":
			_, _ = w.Write([]byte(`{"execution_id": "exec-1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRomaRouter(t *testing.T, completer assistant.Completer, backend *roma.Client) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	persona := assistant.NewOrchestrator(completer, fallback.NewRomaResponder(),
		assistant.RomaOptions("OpenRouter", models.ModelParameters{}, 0, nil), logger)

	deps := Deps{
		Assistant: assistant.NewOrchestrator(nil, nil, assistant.Options{}, logger),
		Roma:      persona,
		Logger:    logger,
	}
	if backend != nil {
		deps.RomaBackend = backend
		deps.RomaAgent = roma.NewResponder(backend, nil, logger)
	}
	return &testEnv{router: NewRouter(deps)}
}

func TestRomaChat(t *testing.T) {
	fc := &fakeCompleter{text: "ROMA decomposes the question."}
	env := newRomaRouter(t, fc, nil)

	w := env.do(t, http.MethodPost, "/api/roma-ai", map[string]any{"query": "How do Mawari nodes work?"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[romaReply](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "ROMA decomposes the question.", resp.Answer)
	assert.Equal(t, assistant.RomaConfidence, resp.Confidence)
	assert.Equal(t, []string{"ROMA-DSPy Framework", "OpenRouter Models", assistant.KnowledgeBaseSource}, resp.Sources)
	assert.Equal(t, "ROMA-DSPy (anthropic/claude-3.5-sonnet)", resp.ModelUsed)
	assert.Equal(t, romaFramework, resp.Framework)

	require.Len(t, fc.requests, 1)
	assert.Equal(t, assistant.RomaSystemPrompt, fc.requests[0].SystemPrompt)
	assert.Equal(t, 0.7, fc.requests[0].ModelParameters.Temperature)
	assert.Equal(t, 1200, fc.requests[0].ModelParameters.MaxTokens)
}

func TestRomaChat_ProviderFailure(t *testing.T) {
	env := newRomaRouter(t, &fakeCompleter{err: errors.New("upstream 500")}, nil)

	w := env.do(t, http.MethodPost, "/api/roma-ai", map[string]any{"query": "Explain DePIN"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[romaReply](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, assistant.RomaFallbackConfidence, resp.Confidence)
	assert.Equal(t, []string{"ROMA-DSPy Framework", "Mawari Network Analysis"}, resp.Sources)
	assert.Equal(t, romaFallbackFramework, resp.Framework)
	assert.Contains(t, resp.Answer, "ROMA integration is active")
	assert.Equal(t, "upstream 500", resp.Error)
}

func TestRomaChat_BadRequest(t *testing.T) {
	env := newRomaRouter(t, &fakeCompleter{}, nil)

	w := env.do(t, http.MethodPost, "/api/roma-ai", map[string]any{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Query parameter is required", decode[map[string]string](t, w)["error"])
}

func TestRomaStatus(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		backend := roma.NewClient(roma.Config{BaseURL: newRomaServer(t, true).URL})
		env := newRomaRouter(t, nil, backend)

		w := env.do(t, http.MethodGet, "/api/roma-status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[gin.H](t, w)
		assert.Equal(t, true, resp["connected"])
		assert.Equal(t, "healthy", resp["status"])
		assert.Equal(t, "0.1.0", resp["version"])
		assert.Equal(t, backend.SessionID(), resp["session_id"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		backend := roma.NewClient(roma.Config{BaseURL: newRomaServer(t, false).URL})
		env := newRomaRouter(t, nil, backend)

		w := env.do(t, http.MethodGet, "/api/roma-status", nil)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode[gin.H](t, w)
		assert.Equal(t, false, resp["connected"])
		assert.Equal(t, false, resp["success"])
		assert.Contains(t, resp["error"], "503")
		assert.NotEmpty(t, resp["timestamp"])
	})

	t.Run("not configured", func(t *testing.T) {
		env := newRomaRouter(t, nil, nil)

		w := env.do(t, http.MethodGet, "/api/roma-status", nil)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, false, decode[gin.H](t, w)["connected"])
	})
}

func TestTestRoma(t *testing.T) {
	t.Run("queued execution", func(t *testing.T) {
		backend := roma.NewClient(roma.Config{BaseURL: newRomaServer(t, true).URL})
		env := newRomaRouter(t, nil, backend)

		w := env.do(t, http.MethodPost, "/api/test-roma", map[string]any{"query": "What is Mawari?"})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[romaReply](t, w)
		assert.True(t, resp.Success)
		assert.Contains(t, resp.Answer, "Execution ID: exec-1")
		assert.Equal(t, roma.QueuedConfidence, resp.Confidence)
		assert.Len(t, resp.FollowUpQuestions, 3)
	})

	t.Run("backend down", func(t *testing.T) {
		backend := roma.NewClient(roma.Config{BaseURL: newRomaServer(t, false).URL})
		env := newRomaRouter(t, nil, backend)

		w := env.do(t, http.MethodPost, "/api/test-roma", map[string]any{"query": "What is Mawari?"})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[romaReply](t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, roma.FallbackConfidence, resp.Confidence)
		assert.Contains(t, resp.Answer, "connected to ROMA (Sentient AGI)")
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("disabled", func(t *testing.T) {
		env := newRomaRouter(t, nil, nil)
		w := env.do(t, http.MethodPost, "/api/test-roma", map[string]any{"query": "hi"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestResetRomaSession(t *testing.T) {
	backend := roma.NewClient(roma.Config{BaseURL: newRomaServer(t, true).URL})
	env := newRomaRouter(t, nil, backend)
	before := backend.SessionID()

	w := env.do(t, http.MethodDelete, "/api/roma-session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[gin.H](t, w)
	assert.Equal(t, true, resp["success"])
	assert.NotEqual(t, before, resp["session_id"])
	assert.Equal(t, backend.SessionID(), resp["session_id"])
}
