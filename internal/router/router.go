package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"axis/internal/perception"
)

// Decision is the arbiter's routing verdict for one request.
type Decision struct {
	Target   string `json:"target"`
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
	TaskType string `json:"task_type"`
}

// Router asks the arbiter model which worker should handle a request.
type Router struct {
	arbiter perception.LLMClient
	catalog Catalog
	logger  *zap.Logger
}

func New(arbiter perception.LLMClient, catalog Catalog, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{arbiter: arbiter, catalog: catalog, logger: logger}
}

// Decide classifies the request and picks a worker. contextText is the
// recent-session block; it rides along so follow-ups route like the turn
// they follow. Decide never returns an error: when the arbiter is
// unreachable or its answer cannot be parsed, the pipeline continues on
// a fixed fallback decision.
func (r *Router) Decide(ctx context.Context, contextText, input string) Decision {
	system := fmt.Sprintf(`You are the routing arbiter of Axis.
Choose the best model for the current user request.

[Model Profiles]
Capability scores 0-10:
%s
[Context]
%s

[Model Aliases]
- "gpt"    = OpenAI (strong at coding, reasoning).
- "gemini" = Google (strong at planning, multimodal).
- "grok"   = xAI (strong at reasoning, math, news).
- "llama"  = the local model (cheap, private).
- "ensemble" = gpt and gemini together, for hard open-ended tasks.

[Your Task]
1. Infer the task_type of the request (for example "code_edit",
   "planning", "casual_chat", "news_query", "math_solve", "file_gen").
2. Using the profiles, pick the best alias for that task_type. Prefer
   higher 'code' for coding, 'planning' for project design,
   'reasoning' and 'general_qa' for analysis and real-time questions.
   Weigh 'speed' and 'cost' when models are close.
3. Return STRICT JSON only:
{"target": "<gpt|gemini|grok|llama|ensemble>", "strategy": "<one word>", "task_type": "<short_label>", "reason": "<brief explanation>"}`,
		r.catalog.PromptBlock(), contextText)

	raw, err := r.arbiter.CompleteWithSystem(ctx, system, input)
	if err != nil {
		r.logger.Warn("arbiter call failed, using fallback route", zap.Error(err))
		return fallbackDecision()
	}

	d, ok := parseDecision(raw)
	if !ok {
		r.logger.Warn("unparseable arbiter answer, using fallback route",
			zap.String("raw", raw))
		return fallbackDecision()
	}
	r.logger.Debug("routing decision",
		zap.String("target", d.Target),
		zap.String("strategy", d.Strategy),
		zap.String("task_type", d.TaskType))
	return d
}

func fallbackDecision() Decision {
	return Decision{Target: "gpt", Strategy: "fallback", Reason: "parse failed"}
}

// parseDecision extracts the span from the first '{' to the last '}' and
// decodes it. Arbiter models often wrap the JSON in prose or code fences;
// the widest span tolerates both.
func parseDecision(raw string) (Decision, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return Decision{}, false
	}

	var d Decision
	if err := json.Unmarshal([]byte(raw[start:end+1]), &d); err != nil {
		return Decision{}, false
	}
	if d.Target == "" {
		return Decision{}, false
	}
	if d.Strategy == "" {
		d.Strategy = "general"
	}
	if d.Reason == "" {
		d.Reason = "Default decision"
	}
	return d, true
}
