package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/fallback"
	"github.com/xaenox/mawari-agent/internal/metrics"
	"github.com/xaenox/mawari-agent/internal/models"
	"github.com/xaenox/mawari-agent/internal/provider"
)

const (
	SuccessConfidence  = 0.9
	FallbackConfidence = 0.5

	KnowledgeBaseSource = "Mawari Network Knowledge Base"
	DocumentationSource = "Mawari Network Documentation"
	FallbackModel       = "Local Fallback"

	DefaultHistoryLimit = 10
)

// Completer is the provider call the orchestrator depends on
type Completer interface {
	Complete(ctx context.Context, req models.ProviderRequest) (*provider.Completion, error)
}

type Options struct {
	// Label names the provider in result sources, e.g. "OpenRouter AI"
	Label        string
	Params       models.ModelParameters
	HistoryLimit int
	Metrics      *metrics.Metrics

	// Persona overrides. Zero values keep the MAWARAI defaults.
	SystemPrompt       string
	Sources            []string
	FallbackSources    []string
	Confidence         float64
	FallbackConfidence float64
	// ModelFormat wraps the reported model name, e.g. "ROMA-DSPy (%s)"
	ModelFormat string
}

// Orchestrator assembles provider requests and degrades to canned answers on failure
type Orchestrator struct {
	completer    Completer
	fallback     fallback.Answerer
	label        string
	params       models.ModelParameters
	historyLimit int
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time

	systemPrompt       string
	sources            []string
	fallbackSources    []string
	confidence         float64
	fallbackConfidence float64
	modelFormat        string
}

// NewOrchestrator builds an orchestrator. A nil completer runs it in fallback-only mode.
func NewOrchestrator(completer Completer, answerer fallback.Answerer, opts Options, logger *zap.Logger) *Orchestrator {
	if answerer == nil {
		answerer = fallback.NewResponder()
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	o := &Orchestrator{
		completer:          completer,
		fallback:           answerer,
		label:              opts.Label,
		params:             opts.Params,
		historyLimit:       limit,
		metrics:            opts.Metrics,
		logger:             logger,
		now:                time.Now,
		systemPrompt:       opts.SystemPrompt,
		sources:            opts.Sources,
		fallbackSources:    opts.FallbackSources,
		confidence:         opts.Confidence,
		fallbackConfidence: opts.FallbackConfidence,
		modelFormat:        opts.ModelFormat,
	}
	if o.systemPrompt == "" {
		o.systemPrompt = SystemPrompt
	}
	if len(o.sources) == 0 {
		o.sources = []string{KnowledgeBaseSource}
		if opts.Label != "" {
			o.sources = []string{opts.Label, KnowledgeBaseSource}
		}
	}
	if len(o.fallbackSources) == 0 {
		o.fallbackSources = []string{DocumentationSource}
	}
	if o.confidence == 0 {
		o.confidence = SuccessConfidence
	}
	if o.fallbackConfidence == 0 {
		o.fallbackConfidence = FallbackConfidence
	}
	return o
}

// Live reports whether a provider is configured
func (o *Orchestrator) Live() bool {
	return o.completer != nil
}

// BuildRequest trims history to the newest turns and embeds the system prompt
func (o *Orchestrator) BuildRequest(query string, history []models.ConversationTurn) models.ProviderRequest {
	if len(history) > o.historyLimit {
		history = history[len(history)-o.historyLimit:]
	}
	trimmed := make([]models.ConversationTurn, len(history))
	copy(trimmed, history)

	return models.ProviderRequest{
		SystemPrompt:    o.systemPrompt,
		History:         trimmed,
		UserQuery:       query,
		ModelParameters: o.params,
	}
}

// Respond never returns an error: provider failures turn into a fallback result
func (o *Orchestrator) Respond(ctx context.Context, query string, history []models.ConversationTurn) models.ProviderResult {
	query = strings.TrimSpace(query)
	if query == "" || o.completer == nil {
		return o.fallbackResult(query, nil)
	}

	start := o.now()
	completion, err := o.completer.Complete(ctx, o.BuildRequest(query, history))
	if err != nil {
		o.logger.Error("Provider call failed, using fallback",
			zap.String("provider", o.label),
			zap.String("kind", string(provider.KindOf(err))),
			zap.Error(err))
		o.metrics.ObserveProvider(o.label, "fallback", 0)
		return o.fallbackResult(query, err)
	}

	latency := completion.Latency
	if latency <= 0 {
		latency = o.now().Sub(start)
	}
	o.metrics.ObserveProvider(o.label, "success", latency)

	model := completion.Model
	if o.modelFormat != "" {
		model = fmt.Sprintf(o.modelFormat, model)
	}
	return models.ProviderResult{
		Answer:     completion.Text,
		Confidence: o.confidence,
		Sources:    append([]string(nil), o.sources...),
		TokensUsed: completion.TokensUsed,
		Model:      model,
		LatencyMs:  latency.Milliseconds(),
	}
}

func (o *Orchestrator) fallbackResult(query string, err error) models.ProviderResult {
	result := models.ProviderResult{
		Answer:     o.fallback.Answer(query),
		Confidence: o.fallbackConfidence,
		Sources:    append([]string(nil), o.fallbackSources...),
		Model:      FallbackModel,
		Fallback:   true,
	}
	if err != nil {
		result.Err = err.Error()
	}
	return result
}
