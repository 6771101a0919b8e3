// Package history persists completed interaction turns as one flat JSON
// array per installation. The file is rewritten wholesale on every append
// and delete, which is acceptable only while the total history stays small.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Turn is one completed user/assistant exchange. Turns are immutable once
// appended and deletable only as a whole session.
type Turn struct {
	ID           string `json:"id"`
	SessionID    string `json:"session_id"`
	TimestampMs  int64  `json:"timestamp_ms"`
	Input        string `json:"input"`
	Output       string `json:"output"`
	ProviderUsed string `json:"provider_used"`
	TaskType     string `json:"task_type,omitempty"`
}

// Log owns the history file. A process-local mutex serializes rewrites;
// cross-process coordination is out of contract.
type Log struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewLog creates a history log stored as history.json under dir.
func NewLog(dir string, logger *zap.Logger) (*Log, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Log{path: filepath.Join(dir, "history.json"), logger: logger}, nil
}

// All returns every stored turn. A missing file is an empty history; an
// unparseable file degrades to empty rather than blocking a request.
func (l *Log) All() ([]Turn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

func (l *Log) readLocked() ([]Turn, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		l.logger.Warn("history file unparseable, treating as empty", zap.Error(err))
		return nil, nil
	}
	return turns, nil
}

// Session returns the turns belonging to one session, in stored order.
func (l *Log) Session(sessionID string) ([]Turn, error) {
	turns, err := l.All()
	if err != nil {
		return nil, err
	}
	var out []Turn
	for _, t := range turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Append adds one turn and rewrites the file.
func (l *Log) Append(turn Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	turns, err := l.readLocked()
	if err != nil {
		return err
	}
	turns = append(turns, turn)
	return l.writeLocked(turns)
}

// DeleteSession removes every turn of the given session (cascade delete).
func (l *Log) DeleteSession(sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	turns, err := l.readLocked()
	if err != nil {
		return err
	}
	kept := turns[:0]
	for _, t := range turns {
		if t.SessionID != sessionID {
			kept = append(kept, t)
		}
	}
	return l.writeLocked(kept)
}

func (l *Log) writeLocked(turns []Turn) error {
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
