package perception

import (
	"axis/internal/config"

	"go.uber.org/zap"
)

// Worker target keys the router may name. Anything unrecognized resolves
// to the local core worker.
const (
	TargetGPT      = "gpt"
	TargetGemini   = "gemini"
	TargetGrok     = "grok"
	TargetLlama    = "llama"
	TargetEnsemble = "ensemble"
)

// WorkerSet bundles the configured backends: one arbiter for routing, one
// worker per target key, and the vision model for screenshot description.
type WorkerSet struct {
	Arbiter LLMClient
	GPT     LLMClient
	Gemini  LLMClient
	Grok    LLMClient
	Local   LLMClient
	Vision  VisionClient
}

// NewWorkerSet builds every client from configuration. Clients with a
// missing credential are still constructed; they fail with a typed error
// at call time, which the pipeline degrades on.
func NewWorkerSet(cfg *config.Config, logger *zap.Logger) *WorkerSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	llm := cfg.LLM

	core := func(model string, temperature float64) *OpenAIClient {
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      llm.CoreAPIKey,
			BaseURL:     llm.CoreBaseURL,
			Model:       model,
			Temperature: temperature,
		}, logger)
	}

	gptCfg := DefaultOpenAIConfig(llm.OpenAIKey)
	gptCfg.Model = llm.GPTModel

	return &WorkerSet{
		// Routing must be stable and auditable, so the arbiter samples
		// near-deterministically.
		Arbiter: core(llm.CoreModel, 0.1),
		Local:   core(llm.CoreModel, 0.7),
		Vision:  core(llm.VisionModel, 0.5),
		GPT:     NewOpenAIClient(gptCfg, logger),
		Gemini: NewGeminiClient(GeminiConfig{
			APIKey:  llm.GeminiKey,
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   llm.GeminiModel,
		}, logger),
		Grok: NewOpenAIClient(OpenAIConfig{
			APIKey:      llm.XAIKey,
			BaseURL:     "https://api.x.ai/v1",
			Model:       llm.GrokModel,
			Temperature: 0.7,
		}, logger),
	}
}

// ForTarget resolves a routing target to a worker. Unknown targets fall
// through to the local worker so an invalid routing answer never blocks
// the pipeline.
func (w *WorkerSet) ForTarget(target string) LLMClient {
	switch target {
	case TargetGPT:
		return w.GPT
	case TargetGemini:
		return w.Gemini
	case TargetGrok:
		return w.Grok
	default:
		return w.Local
	}
}
