package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/community"
	"github.com/xaenox/mawari-agent/internal/manifest"
	"github.com/xaenox/mawari-agent/internal/metrics"
	"github.com/xaenox/mawari-agent/internal/models"
	"github.com/xaenox/mawari-agent/internal/netstats"
	"github.com/xaenox/mawari-agent/internal/roma"
	"github.com/xaenox/mawari-agent/internal/storage"
	"github.com/xaenox/mawari-agent/internal/webhook"
)

const ServiceName = "mawari-agent"

// timestampLayout matches the millisecond ISO-8601 form browsers produce
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Assistant answers a query; it never fails, degraded answers carry Fallback
type Assistant interface {
	Respond(ctx context.Context, query string, history []models.ConversationTurn) models.ProviderResult
}

// ProviderStatus is reported by GET /api/ai-status
type ProviderStatus struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	KeyConfigured bool   `json:"api_key_configured"`
}

// RomaBackend is the ROMA deployment behind /api/roma-status and /api/test-roma
type RomaBackend interface {
	Health(ctx context.Context) (*roma.Health, error)
	SessionID() string
	ResetSession() string
}

// Deps are the collaborators the handlers read from.
// Sessions, Gatherer and the Roma fields are optional.
type Deps struct {
	Assistant   Assistant
	Status      ProviderStatus
	Roma        Assistant
	RomaBackend RomaBackend
	RomaAgent   Assistant
	Sessions    storage.Storage
	Community   *community.Aggregator
	Network     *netstats.Sampler
	Webhooks    *webhook.Dispatcher
	BaseURL     string
	Association manifest.Association
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
}

type handlers struct {
	Deps
	now func() time.Time
}

// NewRouter builds the gin engine with middleware and every route registered
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{Deps: deps, now: time.Now}

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(deps.Logger, deps.Metrics))
	router.Use(RecoveryMiddleware(deps.Logger))
	router.Use(CORSMiddleware())

	router.GET("/health", h.health)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/ai-chat", h.chat)
		api.POST("/ai-chat/sessions", h.createSession)
		api.GET("/ai-chat/sessions/:id", h.getSession)
		api.DELETE("/ai-chat/sessions/:id", h.deleteSession)
		api.GET("/ai-status", h.aiStatus)

		api.POST("/roma-ai", h.romaChat)
		api.GET("/roma-status", h.romaStatus)
		api.POST("/test-roma", h.testRoma)
		api.DELETE("/roma-session", h.resetRomaSession)

		api.GET("/events", h.events)
		api.GET("/announcements", h.announcements)
		api.GET("/posts", h.posts)
		api.GET("/posts/top", h.topPosts)
		api.GET("/posts/stats", h.postStats)
		api.POST("/community/refresh", h.refreshCommunity)

		api.GET("/network-stats", h.networkStats)

		api.GET("/minikit", h.minikit)
		api.GET("/manifest", h.platformManifest)
		api.GET("/base-manifest", h.platformManifest)
		api.GET("/farcaster", h.farcaster)

		api.GET("/webhook", h.webhookStatus)
		api.POST("/webhook", h.webhook)
	}
	router.GET("/.well-known/farcaster.json", h.wellKnownFarcaster)

	return router
}

func (h *handlers) health(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": "1.0.0",
	}
	if h.Community != nil {
		body["community_ready"] = h.Community.IsReady()
	}
	c.JSON(http.StatusOK, body)
}

// Server wraps http.Server so the caller owns the shutdown sequence
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(port int, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background; a listen failure is sent on the returned channel
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
