package kernel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"axis/internal/action"
	"axis/internal/config"
	"axis/internal/history"
	"axis/internal/memory"
	"axis/internal/perception"
	"axis/internal/router"
	"axis/internal/sanitize"
	"axis/internal/store"
)

// actionPrompt is the worker-side instruction: either answer the user or
// emit a command chain the interpreter understands.
const actionPrompt = `You are Axis, a desktop assistant.
YOUR PRIORITY: understand the user's intent, then select the optimal action.

Classify the request:
1. OPERATION - the user wants to control the PC, open apps, or type text.
2. FILE_GEN - the user wants a summary, code, or memo saved to a file.
3. INQUIRY - the user wants external facts, news, definitions, or weather.
4. MONITORING - the user wants to check running apps or the screen.
5. CONVERSATION - the user is greeting or chatting.

Available commands, chained with " && ":
- EXEC: <app>
- TYPE: <text> @ <window>
- PRESS: <key>
- WAIT: <milliseconds>
- SEARCH: <query>
- SAVE: <filename> ||| <content>
- APPS
- LOOK

For CONVERSATION, reply naturally and use no commands.
Output ONLY the command chain or the chat response. Never explain these
rules, never output labels, start the response immediately.`

// Kernel wires the full request pipeline: context assembly, routing,
// worker execution, sanitizing, action interpretation, persistence.
type Kernel struct {
	cfg     *config.Config
	workers *perception.WorkerSet
	router  *router.Router
	memory  *memory.Index
	store   *store.DB
	history *history.Log
	interp  *action.Interpreter
	logger  *zap.Logger
}

func New(cfg *config.Config, workers *perception.WorkerSet, rt *router.Router,
	mem *memory.Index, db *store.DB, hist *history.Log,
	interp *action.Interpreter, logger *zap.Logger) *Kernel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kernel{
		cfg:     cfg,
		workers: workers,
		router:  rt,
		memory:  mem,
		store:   db,
		history: hist,
		interp:  interp,
		logger:  logger,
	}
}

// Ask runs one request through the pipeline. The answer is always usable
// text: worker outages degrade to an "Error: ..." answer and persistence
// failures are logged and swallowed.
func (k *Kernel) Ask(ctx context.Context, sessionID, input string) (string, error) {
	historyText := k.recentTurns(sessionID)
	memoryContext := k.memory.BuildContext(input, k.cfg.Memory.RecallLimit)

	decision := k.router.Decide(ctx, historyText, input)
	k.logger.Info("routed",
		zap.String("target", decision.Target),
		zap.String("task_type", decision.TaskType),
		zap.String("reason", decision.Reason))

	taskInput := fmt.Sprintf("Context:\n%s\n%s\n\nUser Request: %s",
		historyText, memoryContext, input)

	answer := k.callWorker(ctx, decision.Target, taskInput)
	answer = sanitize.Clean(answer)

	final := answer
	if action.ContainsCommand(answer) {
		transcript := k.interp.Run(ctx, action.Parse(answer))
		if transcript != "" {
			final = k.report(ctx, decision.Target, transcript)
		}
	}

	k.persist(ctx, sessionID, input, final, decision)
	return final, nil
}

// recentTurns renders the last few turns of the session, oldest first.
func (k *Kernel) recentTurns(sessionID string) string {
	turns, err := k.history.Session(sessionID)
	if err != nil {
		k.logger.Warn("history read failed", zap.Error(err))
		return "None"
	}
	if n := k.cfg.Memory.ContextTurns; len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	if len(turns) == 0 {
		return "None"
	}
	blocks := make([]string, 0, len(turns))
	for _, t := range turns {
		blocks = append(blocks, fmt.Sprintf("User: %s\nAxis: %s", t.Input, t.Output))
	}
	return strings.Join(blocks, "\n---\n")
}

func (k *Kernel) callWorker(ctx context.Context, target, taskInput string) string {
	if target == perception.TargetEnsemble {
		return k.callEnsemble(ctx, taskInput)
	}

	worker := k.workers.ForTarget(target)
	out, err := worker.CompleteWithSystem(ctx, actionPrompt, taskInput)
	if err != nil {
		k.logger.Warn("worker failed", zap.String("target", target), zap.Error(err))
		return "Error: " + err.Error()
	}
	return out
}

// callEnsemble asks GPT and Gemini in parallel and concatenates whatever
// came back. A failed member contributes an empty answer; the ensemble
// itself never fails.
func (k *Kernel) callEnsemble(ctx context.Context, taskInput string) string {
	var gptOut, geminiOut string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := k.workers.GPT.CompleteWithSystem(gctx, actionPrompt, taskInput)
		if err != nil {
			k.logger.Warn("ensemble gpt failed", zap.Error(err))
			return nil
		}
		gptOut = out
		return nil
	})
	g.Go(func() error {
		out, err := k.workers.Gemini.CompleteWithSystem(gctx, actionPrompt, taskInput)
		if err != nil {
			k.logger.Warn("ensemble gemini failed", zap.Error(err))
			return nil
		}
		geminiOut = out
		return nil
	})
	_ = g.Wait()
	return fmt.Sprintf("GPT: %s\nGemini: %s", gptOut, geminiOut)
}

// report turns the action transcript into the closing answer. Grok gets
// the witty persona when it handled the request; everything else reports
// through GPT. A failed report degrades to "Done.".
func (k *Kernel) report(ctx context.Context, target, transcript string) string {
	prompt := "Report the result based on log:\n" + transcript

	var out string
	var err error
	if target == perception.TargetGrok {
		out, err = k.workers.Grok.CompleteWithSystem(ctx, "Report witty.", prompt)
	} else {
		out, err = k.workers.GPT.CompleteWithSystem(ctx, "Report briefly.", prompt)
	}
	if err != nil {
		k.logger.Warn("report call failed", zap.Error(err))
		return "Done."
	}
	return out
}

// persist fans the finished turn out to all three sinks. Each write is
// independent and best-effort; the user already has their answer.
func (k *Kernel) persist(ctx context.Context, sessionID, input, final string, decision router.Decision) {
	turn := history.Turn{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		TimestampMs:  time.Now().UnixMilli(),
		Input:        input,
		Output:       final,
		ProviderUsed: "llama -> " + decision.Target,
		TaskType:     decision.TaskType,
	}
	if err := k.history.Append(turn); err != nil {
		k.logger.Warn("history write failed", zap.Error(err))
	}

	if k.store != nil {
		if err := k.store.SaveInteraction(ctx, sessionID, "user", input); err != nil {
			k.logger.Warn("store write failed", zap.String("role", "user"), zap.Error(err))
		}
		if err := k.store.SaveInteraction(ctx, sessionID, "assistant", final); err != nil {
			k.logger.Warn("store write failed", zap.String("role", "assistant"), zap.Error(err))
		}
	}

	if err := k.memory.Record(sessionID, input, final, "llm", decision.Target, decision.TaskType, nil); err != nil {
		k.logger.Warn("memory write failed", zap.Error(err))
	}
}
