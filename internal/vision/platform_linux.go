//go:build linux

package vision

import (
	"context"
	"errors"
	"os/exec"
)

// Desktop Linux has no single screenshot tool; try the common ones in
// order until one succeeds.
var captureCommands = [][]string{
	{"gnome-screenshot", "-f"},
	{"scrot", "-o"},
	{"import", "-window", "root"},
}

func captureToFile(ctx context.Context, path string) error {
	var lastErr error
	for _, c := range captureCommands {
		args := append(append([]string{}, c[1:]...), path)
		err := exec.CommandContext(ctx, c[0], args...).Run()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no screenshot tool available")
	}
	return lastErr
}
