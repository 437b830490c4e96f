package assistant

import (
	"github.com/xaenox/mawari-agent/internal/metrics"
	"github.com/xaenox/mawari-agent/internal/models"
)

const (
	RomaLabel              = "ROMA-DSPy"
	RomaConfidence         = 0.95
	RomaFallbackConfidence = 0.6
	RomaTemperature        = 0.7
	RomaMaxTokens          = 1200
)

// RomaSystemPrompt speaks as the ROMA multi-agent framework instead of MAWARAI
const RomaSystemPrompt = `You are ROMA (Sentient AGI), a hierarchical multi-agent framework powered by DSPy. You are integrated with the Mawari Network AI assistant.

Your capabilities include:
- Hierarchical task decomposition and execution
- Advanced reasoning and problem-solving
- Context-aware response generation
- Multi-perspective analysis using DSPy framework

For Mawari Network, you have deep expertise in:
- Decentralized Physical Infrastructure Networks (DePIN)
- XR streaming and immersive internet technologies
- Real-time AI-powered experiences
- Distributed computing architectures
- Bandwidth optimization and edge computing
- Global node deployment strategies

Provide comprehensive, expert-level responses that demonstrate ROMA's advanced reasoning capabilities while focusing on Mawari Network technology and applications.`

// RomaOptions configures an orchestrator that answers as ROMA on the shared provider.
// providerLabel names the provider models in the result sources.
func RomaOptions(providerLabel string, params models.ModelParameters, historyLimit int, m *metrics.Metrics) Options {
	if params.Temperature == 0 {
		params.Temperature = RomaTemperature
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = RomaMaxTokens
	}
	modelsSource := "Provider Models"
	if providerLabel != "" {
		modelsSource = providerLabel + " Models"
	}
	return Options{
		Label:              RomaLabel,
		Params:             params,
		HistoryLimit:       historyLimit,
		Metrics:            m,
		SystemPrompt:       RomaSystemPrompt,
		Sources:            []string{"ROMA-DSPy Framework", modelsSource, KnowledgeBaseSource},
		FallbackSources:    []string{"ROMA-DSPy Framework", "Mawari Network Analysis"},
		Confidence:         RomaConfidence,
		FallbackConfidence: RomaFallbackConfidence,
		ModelFormat:        RomaLabel + " (%s)",
	}
}
