package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"axis/internal/perception"
	"axis/internal/web"
)

// Desktop is the host-control surface the interpreter drives. Every
// capability reports its outcome as a human-readable note, success and
// failure alike.
type Desktop interface {
	LaunchApp(name string) string
	TypeText(text, target string) string
	PressKey(name string) string
	RunningApps() []string
}

// Camera captures the screen as base64-encoded PNG.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}

// Interpreter executes parsed commands sequentially and collects a
// transcript of what happened for the closing report.
type Interpreter struct {
	Desktop   Desktop
	Primary   web.Searcher
	Fallback  web.Searcher
	Camera    Camera
	Vision    perception.VisionClient
	OutputDir string
	Logger    *zap.Logger
}

// Run executes commands in order. A failing command appends an error
// note and execution continues: partial progress is still reported.
func (it *Interpreter) Run(ctx context.Context, cmds []Command) string {
	logger := it.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var notes []string
	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			notes = append(notes, "Aborted: "+err.Error())
			break
		}
		note := it.execute(ctx, cmd)
		logger.Debug("command executed",
			zap.Int("kind", int(cmd.Kind)), zap.String("note", note))
		if note != "" {
			notes = append(notes, note)
		}
	}
	return strings.Join(notes, "\n")
}

func (it *Interpreter) execute(ctx context.Context, cmd Command) string {
	switch cmd.Kind {
	case Look:
		return it.look(ctx)
	case Apps:
		return appsNote(it.Desktop.RunningApps())
	case Search:
		return it.search(ctx, cmd.Arg)
	case Save:
		return it.save(cmd.Filename, cmd.Content)
	case Exec:
		return it.Desktop.LaunchApp(cmd.Arg)
	case Type:
		return it.Desktop.TypeText(cmd.Content, cmd.Target)
	case Press:
		return it.Desktop.PressKey(cmd.Arg)
	case Wait:
		return wait(ctx, cmd.Arg)
	case Invalid:
		return "Invalid SAVE format: " + cmd.Arg
	default:
		return ""
	}
}

func (it *Interpreter) look(ctx context.Context) string {
	img, err := it.Camera.Capture(ctx)
	if err != nil {
		return "Error capturing screen: " + err.Error()
	}
	desc, err := it.Vision.DescribeImage(ctx, "Describe what is on this screen, briefly.", img)
	if err != nil {
		return "Error describing screen: " + err.Error()
	}
	return "Screen: " + desc
}

// search tries the primary source first and falls back when it yields
// nothing. Provider errors become notes, never aborts.
func (it *Interpreter) search(ctx context.Context, query string) string {
	results, err := it.Primary.Search(ctx, query)
	if err != nil || len(results) == 0 {
		if it.Fallback != nil {
			results, err = it.Fallback.Search(ctx, query)
		}
	}
	if err != nil {
		return "Error searching: " + err.Error()
	}
	if len(results) == 0 {
		return "No results for: " + query
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:", query)
	for _, r := range results {
		fmt.Fprintf(&b, "\n- %s (%s)", r.Title, r.Link)
	}
	return b.String()
}

// appsNote lists at most the first ten windows, numbered.
func appsNote(apps []string) string {
	if len(apps) == 0 {
		return "No running apps found."
	}
	if len(apps) > 10 {
		apps = apps[:10]
	}
	var b strings.Builder
	b.WriteString("Running apps:")
	for i, name := range apps {
		fmt.Fprintf(&b, "\n%d. %s", i+1, name)
	}
	return b.String()
}

// save writes under the output directory only; path components in the
// model-supplied name are stripped.
func (it *Interpreter) save(name, content string) string {
	if name == "" {
		return "Invalid SAVE format: empty filename"
	}
	path := filepath.Join(it.OutputDir, filepath.Base(name))
	if err := os.MkdirAll(it.OutputDir, 0o755); err != nil {
		return "Error saving " + name + ": " + err.Error()
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "Error saving " + name + ": " + err.Error()
	}
	return "Saved " + path + "."
}

// wait sleeps for the given number of milliseconds, honoring ctx.
// Non-numeric durations are skipped, and a completed sleep leaves no
// transcript note.
func wait(ctx context.Context, arg string) string {
	ms, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || ms <= 0 {
		return ""
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "Aborted: " + ctx.Err().Error()
	case <-timer.C:
		return ""
	}
}
