//go:build darwin

package vision

import (
	"context"
	"os/exec"
)

func captureToFile(ctx context.Context, path string) error {
	return exec.CommandContext(ctx, "screencapture", "-x", path).Run()
}
