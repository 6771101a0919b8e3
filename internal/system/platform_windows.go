//go:build windows

package system

import (
	"fmt"
	"os/exec"
	"strings"
)

func launchApp(name string) error {
	return exec.Command("cmd", "/C", "start", "", name).Run()
}

func typeText(text, target string) error {
	var script strings.Builder
	script.WriteString("$ws = New-Object -ComObject WScript.Shell; ")
	if target != "" {
		fmt.Fprintf(&script, "$ws.AppActivate(%q) | Out-Null; Start-Sleep -Milliseconds 300; ", target)
	}
	fmt.Fprintf(&script, "$ws.SendKeys(%q)", escapeSendKeys(text))
	return exec.Command("powershell", "-NoProfile", "-Command", script.String()).Run()
}

var windowsSendKeys = map[string]string{
	"enter":     "{ENTER}",
	"tab":       "{TAB}",
	"space":     " ",
	"backspace": "{BACKSPACE}",
	"escape":    "{ESC}",
	"super":     "^{ESC}",
}

func pressKey(key string) error {
	script := fmt.Sprintf("(New-Object -ComObject WScript.Shell).SendKeys(%q)", windowsSendKeys[key])
	return exec.Command("powershell", "-NoProfile", "-Command", script).Run()
}

// escapeSendKeys protects the characters SendKeys treats as directives.
func escapeSendKeys(text string) string {
	r := strings.NewReplacer(
		"{", "{{}", "}", "{}}",
		"+", "{+}", "^", "{^}", "%", "{%}", "~", "{~}",
		"(", "{(}", ")", "{)}",
	)
	return r.Replace(text)
}

func runningApps() ([]string, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command",
		`Get-Process | Where-Object { $_.MainWindowTitle } | Select-Object -ExpandProperty MainWindowTitle`).Output()
	if err != nil {
		return nil, err
	}
	var apps []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			apps = append(apps, line)
		}
	}
	return apps, nil
}

func foregroundWindow() (string, error) {
	script := `
Add-Type @"
using System;
using System.Runtime.InteropServices;
using System.Text;
public class FG {
  [DllImport("user32.dll")] public static extern IntPtr GetForegroundWindow();
  [DllImport("user32.dll")] public static extern int GetWindowText(IntPtr h, StringBuilder s, int n);
}
"@
$sb = New-Object System.Text.StringBuilder 256
[FG]::GetWindowText([FG]::GetForegroundWindow(), $sb, 256) | Out-Null
$sb.ToString()`
	out, err := exec.Command("powershell", "-NoProfile", "-Command", script).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func readStats() Stats {
	return Stats{}
}
