package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/models"
)

type historyTurn struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

type chatRequest struct {
	Query     string        `json:"query"`
	History   []historyTurn `json:"history"`
	SessionID string        `json:"session_id"`
}

type chatResponse struct {
	Success        bool     `json:"success"`
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	Confidence     float64  `json:"confidence"`
	ProcessingTime int64    `json:"processing_time"`
	ModelUsed      string   `json:"model_used,omitempty"`
	Error          string   `json:"error,omitempty"`
	SessionID      string   `json:"session_id,omitempty"`
}

func (h *handlers) chat(c *gin.Context) {
	req, ok := bindQuery(c)
	if !ok {
		return
	}
	query := req.Query

	ctx := c.Request.Context()
	history := requestHistory(req.History)
	stored := req.SessionID != "" && h.Sessions != nil
	if stored {
		turns, err := h.Sessions.RecentTurns(ctx, req.SessionID, 0)
		if err != nil {
			h.Logger.Warn("Failed to load session history",
				zap.String("session_id", req.SessionID),
				zap.Error(err))
		} else {
			history = turns
		}
	}

	result := h.Assistant.Respond(ctx, query, history)

	if stored {
		now := h.now().UTC()
		err := h.Sessions.AppendTurns(ctx, req.SessionID,
			models.ConversationTurn{Role: models.RoleUser, Content: query, CreatedAt: now},
			models.ConversationTurn{Role: models.RoleAssistant, Content: result.Answer, CreatedAt: now},
		)
		if err != nil {
			h.Logger.Warn("Failed to store session turns",
				zap.String("session_id", req.SessionID),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, chatResponse{
		Success:        !result.Fallback,
		Answer:         result.Answer,
		Sources:        result.Sources,
		Confidence:     result.Confidence,
		ProcessingTime: result.LatencyMs,
		ModelUsed:      result.Model,
		Error:          result.Err,
		SessionID:      req.SessionID,
	})
}

// requestHistory drops turns with an unknown role or no content
func requestHistory(in []historyTurn) []models.ConversationTurn {
	out := make([]models.ConversationTurn, 0, len(in))
	for _, t := range in {
		if !t.Role.Valid() || strings.TrimSpace(t.Content) == "" {
			continue
		}
		out = append(out, models.ConversationTurn{Role: t.Role, Content: t.Content})
	}
	return out
}

func (h *handlers) createSession(c *gin.Context) {
	if h.Sessions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sessions are not enabled"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": uuid.New().String()})
}

func (h *handlers) getSession(c *gin.Context) {
	if h.Sessions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sessions are not enabled"})
		return
	}
	id := c.Param("id")
	turns, err := h.Sessions.RecentTurns(c.Request.Context(), id, 0)
	if err != nil {
		h.Logger.Error("Failed to read session", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "turns": turns})
}

func (h *handlers) deleteSession(c *gin.Context) {
	if h.Sessions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sessions are not enabled"})
		return
	}
	id := c.Param("id")
	if err := h.Sessions.DeleteSession(c.Request.Context(), id); err != nil {
		h.Logger.Error("Failed to delete session", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": id})
}

func (h *handlers) aiStatus(c *gin.Context) {
	mode := "fallback"
	if h.Status.KeyConfigured {
		mode = "live"
	}
	c.JSON(http.StatusOK, gin.H{
		"provider":           h.Status.Provider,
		"model":              h.Status.Model,
		"api_key_configured": h.Status.KeyConfigured,
		"mode":               mode,
		"timestamp":          h.now().UTC().Format(timestampLayout),
	})
}
