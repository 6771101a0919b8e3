package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Screen captures the display through the platform's screenshot tool and
// hands the frame over as base64-encoded PNG, ready for a vision model's
// inline-data part.
type Screen struct {
	logger *zap.Logger
}

func NewScreen(logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screen{logger: logger}
}

func (s *Screen) Capture(ctx context.Context) (string, error) {
	path := filepath.Join(os.TempDir(), "axis-frame.png")
	defer func() { _ = os.Remove(path) }()

	if err := captureToFile(ctx, path); err != nil {
		return "", fmt.Errorf("screen capture: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read captured frame: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("screen capture produced an empty frame")
	}

	s.logger.Debug("captured screen", zap.Int("bytes", len(data)))
	return base64.StdEncoding.EncodeToString(data), nil
}
