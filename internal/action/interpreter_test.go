package action

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axis/internal/web"
)

type fakeDesktop struct {
	calls []string
}

func (f *fakeDesktop) LaunchApp(name string) string {
	f.calls = append(f.calls, "launch:"+name)
	return "Launched " + name + "."
}

func (f *fakeDesktop) TypeText(text, target string) string {
	f.calls = append(f.calls, "type:"+text+"@"+target)
	return "Typed the text."
}

func (f *fakeDesktop) PressKey(name string) string {
	f.calls = append(f.calls, "press:"+name)
	if name == "hyper" {
		return "Error: Unknown key."
	}
	return "Pressed " + name + "."
}

func (f *fakeDesktop) RunningApps() []string {
	return []string{"firefox", "code"}
}

type fakeSearcher struct {
	results []web.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]web.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeCamera struct{ err error }

func (f fakeCamera) Capture(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "cGl4ZWxz", nil
}

type fakeVision struct{ desc string }

func (f fakeVision) DescribeImage(_ context.Context, _ string, _ string) (string, error) {
	return f.desc, nil
}

func newInterpreter(t *testing.T) (*Interpreter, *fakeDesktop) {
	t.Helper()
	desk := &fakeDesktop{}
	return &Interpreter{
		Desktop:   desk,
		Primary:   &fakeSearcher{},
		Fallback:  &fakeSearcher{},
		Camera:    fakeCamera{},
		Vision:    fakeVision{desc: "a code editor"},
		OutputDir: t.TempDir(),
	}, desk
}

func TestRunSequentialChain(t *testing.T) {
	it, desk := newInterpreter(t)

	out := it.Run(context.Background(), Parse("EXEC:notepad && TYPE:hi @ notepad && PRESS:enter"))
	assert.Equal(t, "Launched notepad.\nTyped the text.\nPressed enter.", out)
	assert.Equal(t, []string{"launch:notepad", "type:hi@notepad", "press:enter"}, desk.calls)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	it, desk := newInterpreter(t)

	out := it.Run(context.Background(), Parse("PRESS:hyper && PRESS:enter"))
	assert.Equal(t, "Error: Unknown key.\nPressed enter.", out)
	assert.Len(t, desk.calls, 2)
}

func TestRunSave(t *testing.T) {
	it, _ := newInterpreter(t)

	out := it.Run(context.Background(), Parse("SAVE: notes.txt ||| buy milk"))
	assert.Equal(t, "Saved "+filepath.Join(it.OutputDir, "notes.txt")+".", out)

	data, err := os.ReadFile(filepath.Join(it.OutputDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "buy milk", string(data))
}

func TestRunSaveStripsPathComponents(t *testing.T) {
	it, _ := newInterpreter(t)

	out := it.Run(context.Background(), Parse("SAVE: ../../etc/notes.txt ||| x"))
	assert.Equal(t, "Saved "+filepath.Join(it.OutputDir, "notes.txt")+".", out)
	assert.FileExists(t, filepath.Join(it.OutputDir, "notes.txt"))
}

func TestRunInvalidSave(t *testing.T) {
	it, _ := newInterpreter(t)

	out := it.Run(context.Background(), Parse("SAVE: notes.txt no separator"))
	assert.Contains(t, out, "Invalid SAVE format")
	entries, err := os.ReadDir(it.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written for malformed SAVE")
}

func TestRunLook(t *testing.T) {
	it, _ := newInterpreter(t)

	out := it.Run(context.Background(), Parse("LOOK"))
	assert.Equal(t, "Screen: a code editor", out)

	it.Camera = fakeCamera{err: errors.New("no display")}
	out = it.Run(context.Background(), Parse("LOOK"))
	assert.Equal(t, "Error capturing screen: no display", out)
}

func TestRunApps(t *testing.T) {
	it, _ := newInterpreter(t)
	out := it.Run(context.Background(), Parse("APPS"))
	assert.Equal(t, "Running apps:\n1. firefox\n2. code", out)
}

func TestSearchFallbackOrdering(t *testing.T) {
	t.Run("primary hit skips fallback", func(t *testing.T) {
		it, _ := newInterpreter(t)
		primary := &fakeSearcher{results: []web.Result{{Title: "Primary", Snippet: "s"}}}
		fallback := &fakeSearcher{}
		it.Primary, it.Fallback = primary, fallback

		out := it.Run(context.Background(), Parse("SEARCH: go testing"))
		assert.Contains(t, out, "Primary")
		assert.Empty(t, fallback.queries)
	})

	t.Run("empty primary falls through", func(t *testing.T) {
		it, _ := newInterpreter(t)
		fallback := &fakeSearcher{results: []web.Result{{Title: "DDG hit", Snippet: "s"}}}
		it.Fallback = fallback

		out := it.Run(context.Background(), Parse("SEARCH: go testing"))
		assert.Contains(t, out, "DDG hit")
		assert.Equal(t, []string{"go testing"}, fallback.queries)
	})

	t.Run("both empty", func(t *testing.T) {
		it, _ := newInterpreter(t)
		out := it.Run(context.Background(), Parse("SEARCH: nothing here"))
		assert.Equal(t, "No results for: nothing here", out)
	})

	t.Run("fallback error becomes note", func(t *testing.T) {
		it, _ := newInterpreter(t)
		it.Fallback = &fakeSearcher{err: errors.New("rate limited")}
		out := it.Run(context.Background(), Parse("SEARCH: q"))
		assert.Equal(t, "Error searching: rate limited", out)
	})
}

func TestWait(t *testing.T) {
	t.Run("non-numeric is skipped silently", func(t *testing.T) {
		it, _ := newInterpreter(t)
		out := it.Run(context.Background(), Parse("WAIT:soon && PRESS:enter"))
		assert.Equal(t, "Pressed enter.", out)
	})

	t.Run("cancelled context aborts the sleep", func(t *testing.T) {
		it, _ := newInterpreter(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out := it.Run(ctx, []Command{{Kind: Wait, Arg: "30"}})
		assert.Contains(t, out, "Aborted")
	})
}
