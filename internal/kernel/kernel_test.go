package kernel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axis/internal/action"
	"axis/internal/config"
	"axis/internal/history"
	"axis/internal/memory"
	"axis/internal/perception"
	"axis/internal/router"
	"axis/internal/store"
	"axis/internal/web"
)

type llmCall struct {
	system string
	prompt string
}

type fakeLLM struct {
	reply func(system, prompt string) (string, error)
	calls []llmCall
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeLLM) CompleteWithSystem(_ context.Context, system, prompt string) (string, error) {
	f.calls = append(f.calls, llmCall{system: system, prompt: prompt})
	return f.reply(system, prompt)
}

func answer(s string) func(string, string) (string, error) {
	return func(string, string) (string, error) { return s, nil }
}

type fakeDesktop struct{}

func (fakeDesktop) LaunchApp(name string) string       { return "Launched " + name + "." }
func (fakeDesktop) TypeText(_, _ string) string        { return "Typed the text." }
func (fakeDesktop) PressKey(name string) string        { return "Pressed " + name + "." }
func (fakeDesktop) RunningApps() []string              { return []string{"firefox"} }

type emptySearch struct{}

func (emptySearch) Search(context.Context, string) ([]web.Result, error) { return nil, nil }

type noCamera struct{}

func (noCamera) Capture(context.Context) (string, error) {
	return "", errors.New("no display")
}

type noVision struct{}

func (noVision) DescribeImage(context.Context, string, string) (string, error) {
	return "", errors.New("no vision model")
}

type fixture struct {
	kernel  *Kernel
	arbiter *fakeLLM
	local   *fakeLLM
	gpt     *fakeLLM
	gemini  *fakeLLM
	grok    *fakeLLM
	history *history.Log
	memory  *memory.Index
	store   *store.DB
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.OutputDir = filepath.Join(dir, "out")

	mem, err := memory.NewIndex(dir, nil)
	require.NoError(t, err)

	hist, err := history.NewLog(dir, nil)
	require.NoError(t, err)

	db, err := store.Open(filepath.Join(dir, "memory.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		arbiter: &fakeLLM{reply: answer(`{"target":"llama","strategy":"direct","reason":"chat","task_type":"casual_chat"}`)},
		local:   &fakeLLM{reply: answer("CONVERSATION: Hello!")},
		gpt:     &fakeLLM{reply: answer("gpt answer")},
		gemini:  &fakeLLM{reply: answer("gemini answer")},
		grok:    &fakeLLM{reply: answer("grok answer")},
		history: hist,
		memory:  mem,
		store:   db,
		cfg:     cfg,
	}

	workers := &perception.WorkerSet{
		Arbiter: f.arbiter,
		GPT:     f.gpt,
		Gemini:  f.gemini,
		Grok:    f.grok,
		Local:   f.local,
	}

	interp := &action.Interpreter{
		Desktop:   fakeDesktop{},
		Primary:   emptySearch{},
		Fallback:  emptySearch{},
		Camera:    noCamera{},
		Vision:    noVision{},
		OutputDir: cfg.OutputDir,
	}

	f.kernel = New(cfg, workers,
		router.New(f.arbiter, router.DefaultCatalog(), nil),
		mem, db, hist, interp, nil)
	return f
}

func TestAskConversation(t *testing.T) {
	f := newFixture(t)

	out, err := f.kernel.Ask(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", out, "CONVERSATION prefix stripped")

	turns, err := f.history.Session("s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Input)
	assert.Equal(t, "Hello!", turns[0].Output)
	assert.Equal(t, "llama -> llama", turns[0].ProviderUsed)
	assert.Equal(t, "casual_chat", turns[0].TaskType)
	assert.NotEmpty(t, turns[0].ID)

	rows, err := f.store.Recall(context.Background(), "hello", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, rows, "interaction reached the relational sink")

	hits, err := f.memory.SearchTopK("hello", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, hits, "interaction reached the memory index")
}

func TestAskIncludesSessionContext(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 7; i++ {
		require.NoError(t, f.history.Append(history.Turn{
			ID: fmt.Sprintf("t%d", i), SessionID: "s1",
			Input: fmt.Sprintf("question %d", i), Output: fmt.Sprintf("answer %d", i),
		}))
	}

	_, err := f.kernel.Ask(context.Background(), "s1", "follow-up")
	require.NoError(t, err)

	prompt := f.local.calls[0].prompt
	assert.Contains(t, prompt, "User: question 6\nAxis: answer 6")
	assert.Contains(t, prompt, "question 2")
	assert.NotContains(t, prompt, "question 1", "only the last five turns ride along")
	assert.Contains(t, prompt, "User Request: follow-up")
}

func TestAskEmptySessionSaysNone(t *testing.T) {
	f := newFixture(t)

	_, err := f.kernel.Ask(context.Background(), "fresh", "hi")
	require.NoError(t, err)
	assert.Contains(t, f.local.calls[0].prompt, "Context:\nNone")
}

func TestAskRoutesToTarget(t *testing.T) {
	f := newFixture(t)
	f.arbiter.reply = answer(`{"target":"grok","strategy":"direct","reason":"news","task_type":"news_query"}`)

	out, err := f.kernel.Ask(context.Background(), "s1", "latest news?")
	require.NoError(t, err)
	assert.Equal(t, "grok answer", out)
	assert.Empty(t, f.local.calls, "local worker stays idle")
}

func TestAskWorkerErrorBecomesAnswer(t *testing.T) {
	f := newFixture(t)
	f.local.reply = func(string, string) (string, error) {
		return "", errors.New("connection refused")
	}

	out, err := f.kernel.Ask(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Error: connection refused", out)

	turns, err := f.history.Session("s1")
	require.NoError(t, err)
	require.Len(t, turns, 1, "failed answers still get persisted")
}

func TestAskEnsembleConcatenates(t *testing.T) {
	f := newFixture(t)
	f.arbiter.reply = answer(`{"target":"ensemble","strategy":"parallel","reason":"hard","task_type":"planning"}`)

	out, err := f.kernel.Ask(context.Background(), "s1", "plan my week")
	require.NoError(t, err)
	assert.Equal(t, "GPT: gpt answer\nGemini: gemini answer", out)
}

func TestAskEnsembleMemberFailureLeavesBlank(t *testing.T) {
	f := newFixture(t)
	f.arbiter.reply = answer(`{"target":"ensemble","strategy":"parallel","reason":"hard","task_type":"planning"}`)
	f.gemini.reply = func(string, string) (string, error) { return "", errors.New("quota") }

	out, err := f.kernel.Ask(context.Background(), "s1", "plan my week")
	require.NoError(t, err)
	assert.Equal(t, "GPT: gpt answer\nGemini: ", out)
}

func TestAskSaveCommandFlow(t *testing.T) {
	f := newFixture(t)
	f.local.reply = answer("SAVE: notes.txt ||| buy milk")
	f.gpt.reply = func(system, prompt string) (string, error) {
		assert.Equal(t, "Report briefly.", system)
		assert.Contains(t, prompt, "notes.txt")
		return "Your note is on the desktop.", nil
	}

	out, err := f.kernel.Ask(context.Background(), "s1", "save a shopping note")
	require.NoError(t, err)
	assert.Equal(t, "Your note is on the desktop.", out)

	data, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "buy milk", string(data))
}

func TestAskGrokReportsWitty(t *testing.T) {
	f := newFixture(t)
	f.arbiter.reply = answer(`{"target":"grok","strategy":"direct","reason":"op","task_type":"operation"}`)
	f.grok.reply = func(system, prompt string) (string, error) {
		if system == "Report witty." {
			return "Notepad, at your service.", nil
		}
		return "EXEC:notepad", nil
	}

	out, err := f.kernel.Ask(context.Background(), "s1", "open notepad")
	require.NoError(t, err)
	assert.Equal(t, "Notepad, at your service.", out)
}

func TestAskReportFailureFallsBackToDone(t *testing.T) {
	f := newFixture(t)
	f.local.reply = answer("EXEC:notepad")
	f.gpt.reply = func(string, string) (string, error) {
		return "", errors.New("down")
	}

	out, err := f.kernel.Ask(context.Background(), "s1", "open notepad")
	require.NoError(t, err)
	assert.Equal(t, "Done.", out)
}

func TestAskPressOnlyReplyIsVerbatim(t *testing.T) {
	f := newFixture(t)
	f.local.reply = answer("PRESS: enter")

	out, err := f.kernel.Ask(context.Background(), "s1", "what do I press?")
	require.NoError(t, err)
	assert.Equal(t, "PRESS: enter", out, "no trigger marker, reply passes through")
	assert.Empty(t, f.gpt.calls, "no action phase, no report call")
}

func TestAskPlainReplySkipsReport(t *testing.T) {
	f := newFixture(t)
	f.local.reply = answer("Nothing to do here.")

	out, err := f.kernel.Ask(context.Background(), "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to do here.", out)
	assert.Empty(t, f.gpt.calls, "no report call without a transcript")
}
