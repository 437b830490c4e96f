package roma

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/fallback"
	"github.com/xaenox/mawari-agent/internal/metrics"
	"github.com/xaenox/mawari-agent/internal/models"
)

const (
	metricsLabel = "ROMA"

	QueuedConfidence   = 0.9
	DirectConfidence   = 0.8
	FallbackConfidence = 0.5

	FallbackModel = "ROMA Fallback"
)

var (
	queuedSources   = []string{"ROMA-DSPy Execution System", "OpenRouter LLM"}
	directSources   = []string{"ROMA-DSPy"}
	fallbackSources = []string{"Mawari Network Documentation"}

	queuedFollowUps = []string{
		"Can you tell me more about Mawari's DePIN architecture?",
		"How does Mawari achieve near-zero latency?",
		"What are the requirements for running a Mawari node?",
	}
)

// Responder answers through ROMA executions and degrades to the ROMA fallback table
type Responder struct {
	client   *Client
	fallback fallback.Answerer
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewResponder(client *Client, m *metrics.Metrics, logger *zap.Logger) *Responder {
	return &Responder{
		client:   client,
		fallback: fallback.NewRomaResponder(),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Respond never returns an error: ROMA failures turn into a fallback result
func (r *Responder) Respond(ctx context.Context, query string, history []models.ConversationTurn) models.ProviderResult {
	query = strings.TrimSpace(query)
	start := r.now()

	execution, err := r.client.Execute(ctx, query, history)
	if err != nil {
		r.logger.Error("ROMA execution failed, using fallback", zap.Error(err))
		r.metrics.ObserveProvider(metricsLabel, "fallback", 0)
		return models.ProviderResult{
			Answer:     r.fallback.Answer(query),
			Confidence: FallbackConfidence,
			Sources:    append([]string(nil), fallbackSources...),
			Model:      FallbackModel,
			Fallback:   true,
			Err:        err.Error(),
		}
	}

	latency := r.now().Sub(start)
	r.metrics.ObserveProvider(metricsLabel, "success", latency)

	if execution.ExecutionID != "" {
		return models.ProviderResult{
			Answer: fmt.Sprintf("I'm processing your question about %q using ROMA's hierarchical multi-agent system. "+
				"Your query has been received and is being decomposed into intelligent subtasks for comprehensive analysis. "+
				"Execution ID: %s", query, execution.ExecutionID),
			Confidence:        QueuedConfidence,
			Sources:           append([]string(nil), queuedSources...),
			FollowUpQuestions: append([]string(nil), queuedFollowUps...),
			LatencyMs:         latency.Milliseconds(),
		}
	}

	result := models.ProviderResult{
		Answer:            execution.Text(),
		Confidence:        execution.Confidence,
		Sources:           execution.Sources,
		FollowUpQuestions: execution.FollowUpQuestions,
		LatencyMs:         latency.Milliseconds(),
	}
	if result.Confidence == 0 {
		result.Confidence = DirectConfidence
	}
	if len(result.Sources) == 0 {
		result.Sources = append([]string(nil), directSources...)
	}
	return result
}
