package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	romaFramework         = "Hierarchical Multi-Agent System"
	romaFallbackFramework = "ROMA-DSPy (Fallback Mode)"
)

type romaResponse struct {
	chatResponse
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
	Framework         string   `json:"framework,omitempty"`
}

// bindQuery reads a chat request and answers 400 itself when it is unusable
func bindQuery(c *gin.Context) (chatRequest, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter is required"})
		return req, false
	}
	return req, true
}

func romaDisabled(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "ROMA is not enabled"})
}

// romaChat answers with the ROMA persona on the configured provider
func (h *handlers) romaChat(c *gin.Context) {
	if h.Roma == nil {
		romaDisabled(c)
		return
	}
	req, ok := bindQuery(c)
	if !ok {
		return
	}

	result := h.Roma.Respond(c.Request.Context(), req.Query, requestHistory(req.History))
	framework := romaFramework
	if result.Fallback {
		framework = romaFallbackFramework
	}
	c.JSON(http.StatusOK, romaResponse{
		chatResponse: chatResponse{
			Success:        !result.Fallback,
			Answer:         result.Answer,
			Sources:        result.Sources,
			Confidence:     result.Confidence,
			ProcessingTime: result.LatencyMs,
			ModelUsed:      result.Model,
			Error:          result.Err,
		},
		Framework: framework,
	})
}

// romaStatus reports whether the ROMA deployment answers its health check
func (h *handlers) romaStatus(c *gin.Context) {
	timestamp := h.now().UTC().Format(timestampLayout)
	if h.RomaBackend == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "ROMA is not configured",
			"connected": false,
			"timestamp": timestamp,
		})
		return
	}

	health, err := h.RomaBackend.Health(c.Request.Context())
	if err != nil {
		h.Logger.Warn("ROMA connectivity check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     err.Error(),
			"connected": false,
			"timestamp": timestamp,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"status":     health.Status,
		"version":    health.Version,
		"connected":  true,
		"session_id": h.RomaBackend.SessionID(),
		"timestamp":  timestamp,
	})
}

// testRoma sends the query straight to a ROMA execution
func (h *handlers) testRoma(c *gin.Context) {
	if h.RomaAgent == nil {
		romaDisabled(c)
		return
	}
	req, ok := bindQuery(c)
	if !ok {
		return
	}

	result := h.RomaAgent.Respond(c.Request.Context(), req.Query, requestHistory(req.History))
	c.JSON(http.StatusOK, romaResponse{
		chatResponse: chatResponse{
			Success:        !result.Fallback,
			Answer:         result.Answer,
			Sources:        result.Sources,
			Confidence:     result.Confidence,
			ProcessingTime: result.LatencyMs,
			ModelUsed:      result.Model,
			Error:          result.Err,
		},
		FollowUpQuestions: result.FollowUpQuestions,
	})
}

func (h *handlers) resetRomaSession(c *gin.Context) {
	if h.RomaBackend == nil {
		romaDisabled(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": h.RomaBackend.ResetSession()})
}
