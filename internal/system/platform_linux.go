//go:build linux

package system

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

func launchApp(name string) error {
	cmd := exec.Command("sh", "-c", name)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Detach so a closing shell doesn't take the app with it.
	return cmd.Process.Release()
}

func typeText(text, target string) error {
	if target != "" {
		// Best-effort focus; typing proceeds even when no window matches.
		_ = exec.Command("wmctrl", "-a", target).Run()
	}
	return exec.Command("xdotool", "type", "--delay", "50", text).Run()
}

var linuxKeysyms = map[string]string{
	"enter":     "Return",
	"tab":       "Tab",
	"space":     "space",
	"backspace": "BackSpace",
	"super":     "super",
	"escape":    "Escape",
}

func pressKey(key string) error {
	return exec.Command("xdotool", "key", linuxKeysyms[key]).Run()
}

func runningApps() ([]string, error) {
	out, err := exec.Command("wmctrl", "-l").Output()
	if err != nil {
		return nil, err
	}
	var apps []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		// wmctrl -l: <id> <desktop> <host> <title...>
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			apps = append(apps, strings.Join(fields[3:], " "))
		}
	}
	return apps, nil
}

func foregroundWindow() (string, error) {
	out, err := exec.Command("xdotool", "getactivewindow", "getwindowname").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func readStats() Stats {
	var s Stats
	if data, err := os.ReadFile("/proc/loadavg"); err == nil {
		if fields := strings.Fields(string(data)); len(fields) > 0 {
			s.Load1, _ = strconv.ParseFloat(fields[0], 64)
		}
	}
	if data, err := os.ReadFile("/proc/meminfo"); err == nil {
		var totalKB, availKB uint64
		for _, line := range strings.Split(string(data), "\n") {
			if _, err := fmt.Sscanf(line, "MemTotal: %d kB", &totalKB); err == nil {
				continue
			}
			_, _ = fmt.Sscanf(line, "MemAvailable: %d kB", &availKB)
		}
		s.MemTotalMB = totalKB / 1024
		if availKB <= totalKB {
			s.MemUsedMB = (totalKB - availKB) / 1024
		}
	}
	return s
}
