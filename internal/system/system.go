package system

import (
	"strings"

	"go.uber.org/zap"
)

// Stats are best-effort host vitals. Fields stay zero on platforms
// without a cheap way to read them.
type Stats struct {
	Load1      float64
	MemUsedMB  uint64
	MemTotalMB uint64
}

// Controller drives the desktop through platform tools (xdotool/wmctrl,
// osascript, PowerShell). Every method reports its outcome as a note
// string; callers weave the notes into the action transcript.
type Controller struct {
	logger *zap.Logger
}

func NewController(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{logger: logger}
}

func (c *Controller) LaunchApp(name string) string {
	if err := launchApp(name); err != nil {
		c.logger.Warn("launch failed", zap.String("app", name), zap.Error(err))
		return "Error launching " + name + ": " + err.Error()
	}
	return "Launched " + name + "."
}

func (c *Controller) TypeText(text, target string) string {
	if err := typeText(text, target); err != nil {
		c.logger.Warn("type failed", zap.Error(err))
		return "Error typing: " + err.Error()
	}
	return "Typed the text."
}

func (c *Controller) PressKey(name string) string {
	key, ok := canonicalKey(name)
	if !ok {
		return "Error: Unknown key."
	}
	if err := pressKey(key); err != nil {
		c.logger.Warn("keypress failed", zap.String("key", name), zap.Error(err))
		return "Error pressing " + name + ": " + err.Error()
	}
	return "Pressed " + name + "."
}

func (c *Controller) RunningApps() []string {
	apps, err := runningApps()
	if err != nil {
		c.logger.Warn("app listing failed", zap.Error(err))
		return nil
	}
	return apps
}

func (c *Controller) ForegroundWindow() string {
	title, err := foregroundWindow()
	if err != nil {
		return ""
	}
	return title
}

func (c *Controller) Stats() Stats {
	return readStats()
}

// canonicalKey normalizes user-facing key names to the tokens the
// platform layers understand.
func canonicalKey(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "enter", "return":
		return "enter", true
	case "tab":
		return "tab", true
	case "space":
		return "space", true
	case "backspace":
		return "backspace", true
	case "windows", "super", "meta":
		return "super", true
	case "escape", "esc":
		return "escape", true
	default:
		return "", false
	}
}
