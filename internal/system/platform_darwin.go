//go:build darwin

package system

import (
	"fmt"
	"os/exec"
	"strings"
)

func launchApp(name string) error {
	return exec.Command("open", "-a", name).Run()
}

func typeText(text, target string) error {
	if target != "" {
		_ = exec.Command("osascript", "-e",
			fmt.Sprintf(`tell application %q to activate`, target)).Run()
	}
	script := fmt.Sprintf(`tell application "System Events" to keystroke %q`, text)
	return exec.Command("osascript", "-e", script).Run()
}

var darwinKeyCodes = map[string]string{
	"enter":     "36",
	"tab":       "48",
	"space":     "49",
	"backspace": "51",
	"escape":    "53",
	"super":     "55",
}

func pressKey(key string) error {
	script := fmt.Sprintf(`tell application "System Events" to key code %s`, darwinKeyCodes[key])
	return exec.Command("osascript", "-e", script).Run()
}

func runningApps() ([]string, error) {
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of (processes where background only is false)`).Output()
	if err != nil {
		return nil, err
	}
	var apps []string
	for _, name := range strings.Split(strings.TrimSpace(string(out)), ", ") {
		if name != "" {
			apps = append(apps, name)
		}
	}
	return apps, nil
}

func foregroundWindow() (string, error) {
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first process whose frontmost is true`).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func readStats() Stats {
	return Stats{}
}
