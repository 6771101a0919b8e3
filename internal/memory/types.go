package memory

import (
	"errors"
	"fmt"
)

// Kind classifies how a memory record participates in retrieval and
// maintenance. Sealed records are never returned by search.
type Kind string

const (
	KindShortTerm Kind = "SHORT_TERM"
	KindLongTerm  Kind = "LONG_TERM"
	KindMeta      Kind = "META"
	KindSealed    Kind = "SEALED"
)

// AttachmentRef points at a stored binary object referenced by an IO block.
type AttachmentRef struct {
	ObjectID string `json:"object_id"`
	Name     string `json:"name,omitempty"`
	Mime     string `json:"mime,omitempty"`
}

// IOBlock is one side (input or output) of an interaction: text plus any
// attachment references.
type IOBlock struct {
	Text        string          `json:"text"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// Entry is the full payload of one recorded interaction. Entries are
// immutable once written and are hydrated lazily during search.
type Entry struct {
	ID          string  `json:"id"`
	SessionID   string  `json:"session_id"`
	TimestampMs int64   `json:"timestamp_ms"`
	Input       IOBlock `json:"input"`
	Output      IOBlock `json:"output"`
}

// Meta is the sibling metadata record scanned during retrieval. It carries
// everything scoring needs so the entry file stays unread until a record
// survives filtering.
type Meta struct {
	ID           string   `json:"id"`
	SessionID    string   `json:"session_id,omitempty"`
	Kind         Kind     `json:"kind"`
	Importance   float64  `json:"importance"`
	Tags         []string `json:"tags,omitempty"`
	Source       string   `json:"source,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	References   []string `json:"references,omitempty"`
	TaskType     string   `json:"task_type,omitempty"`
	SealedReason string   `json:"sealed_reason,omitempty"`
	CreatedAtMs  int64    `json:"created_at_ms"`
	UpdatedAtMs  int64    `json:"updated_at_ms"`
	SearchText   string   `json:"search_text"`
}

// Hit is one ranked retrieval result.
type Hit struct {
	ID    string
	Score float64
	Entry Entry
	Meta  Meta
}

// ErrInvalidMeta wraps every metadata validation failure so callers can
// distinguish rejected writes from I/O errors.
var ErrInvalidMeta = errors.New("invalid memory meta")

// Validate enforces the record invariants. It runs before any byte is
// written so a rejected record leaves no partial entry/meta pair behind.
func (m *Meta) Validate() error {
	if m.Importance < 0.0 || m.Importance > 1.0 {
		return fmt.Errorf("%w: importance %v outside [0.0, 1.0]", ErrInvalidMeta, m.Importance)
	}
	if m.Kind == KindSealed && m.SealedReason == "" {
		return fmt.Errorf("%w: sealed record requires a sealed_reason", ErrInvalidMeta)
	}
	return nil
}
