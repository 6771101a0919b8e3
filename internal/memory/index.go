// Package memory implements the append-only personal memory index: one
// JSON entry file plus one metadata file per record, a full-scan heuristic
// ranker over the metadata, and prompt-context rendering for workers.
//
// The corpus is expected to stay small, so ranked retrieval is a linear
// scan rather than an inverted index. Results are stable under repeated
// identical queries up to the ordering of exact score ties.
package memory

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Index is the memory store rooted at a single entries directory. Writes
// are self-contained per record, so concurrent writers need no coordination
// beyond the id generator.
type Index struct {
	dir    string
	logger *zap.Logger

	mu      sync.Mutex
	entropy *rand.Rand

	// now is swappable in tests that exercise recency scoring.
	now func() time.Time
}

// NewIndex opens (creating if needed) the index under root/entries.
func NewIndex(root string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(root, "entries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &Index{
		dir:     dir,
		logger:  logger,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}, nil
}

func (ix *Index) newID() string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ix.entropy).String()
}

func (ix *Index) entryPath(id string) string {
	return filepath.Join(ix.dir, id+".json")
}

func (ix *Index) metaPath(id string) string {
	return filepath.Join(ix.dir, id+".meta.json")
}

// Save validates the meta and then persists the entry/meta pair. Validation
// failures reject the write before anything touches disk.
func (ix *Index) Save(entry Entry, meta Meta) error {
	if err := meta.Validate(); err != nil {
		return err
	}

	entryJSON, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	if err := os.WriteFile(ix.entryPath(entry.ID), entryJSON, 0o644); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	if err := os.WriteFile(ix.metaPath(entry.ID), metaJSON, 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

// Record stores one completed interaction as a ShortTerm record with the
// default importance. Each call creates a distinct record; nothing is ever
// overwritten.
func (ix *Index) Record(sessionID, inputText, outputText, source, provider, taskType string, references []string) error {
	now := ix.now().UnixMilli()
	id := ix.newID()

	entry := Entry{
		ID:          id,
		SessionID:   sessionID,
		TimestampMs: now,
		Input:       IOBlock{Text: inputText},
		Output:      IOBlock{Text: outputText},
	}

	meta := Meta{
		ID:          id,
		SessionID:   sessionID,
		Kind:        KindShortTerm,
		Importance:  0.5,
		Source:      source,
		Provider:    provider,
		References:  references,
		TaskType:    taskType,
		CreatedAtMs: now,
		UpdatedAtMs: now,
		SearchText:  Normalize(inputText + "\n" + outputText + "\n"),
	}

	if err := ix.Save(entry, meta); err != nil {
		return err
	}
	ix.logger.Debug("memory record saved",
		zap.String("id", id),
		zap.String("session", sessionID),
		zap.String("provider", provider))
	return nil
}

// LoadEntry hydrates a full entry payload by id.
func (ix *Index) LoadEntry(id string) (Entry, error) {
	data, err := os.ReadFile(ix.entryPath(id))
	if err != nil {
		return Entry{}, fmt.Errorf("read entry %s: %w", id, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return e, nil
}

// LoadMeta reads a single metadata record by id.
func (ix *Index) LoadMeta(id string) (Meta, error) {
	data, err := os.ReadFile(ix.metaPath(id))
	if err != nil {
		return Meta{}, fmt.Errorf("read meta %s: %w", id, err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return Meta{}, fmt.Errorf("decode meta %s: %w", id, err)
	}
	return m, nil
}

// listMetas scans every *.meta.json in the index, newest first. Unreadable
// files are skipped; a corrupt record must not poison retrieval.
func (ix *Index) listMetas() ([]Meta, error) {
	dirents, err := os.ReadDir(ix.dir)
	if err != nil {
		return nil, fmt.Errorf("read memory dir: %w", err)
	}

	var out []Meta
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".meta.json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ix.dir, de.Name()))
		if err != nil {
			continue
		}
		var m Meta
		if err := json.Unmarshal(data, &m); err != nil {
			ix.logger.Warn("skipping corrupt meta record", zap.String("file", de.Name()))
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAtMs > out[j].UpdatedAtMs })
	return out, nil
}

// Scoring weights for the heuristic ranker.
const (
	weightJaccard    = 5.0
	weightTagOverlap = 1.5
	weightImportance = 2.0
	weightRecency    = 1.0
	exactMatchBonus  = 2.0
)

func (ix *Index) recencyBoost(updatedAtMs int64) float64 {
	ageMs := float64(ix.now().UnixMilli() - updatedAtMs)
	if ageMs < 0 {
		ageMs = 0
	}
	ageDays := ageMs / 1000 / 60 / 60 / 24
	b := 1.0 - ageDays/30.0
	if b < 0 {
		return 0
	}
	if b > 1 {
		return 1
	}
	return b
}

// SearchTopK returns the k best-scoring records for a free-text query.
// Sealed records and records scoring zero or below are excluded. An empty
// query returns nothing without scanning.
func (ix *Index) SearchTopK(query string, k int) ([]Hit, error) {
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}

	qTokens := Tokenize(q)
	qSet := make(map[string]struct{}, len(qTokens))
	for _, t := range qTokens {
		qSet[t] = struct{}{}
	}

	metas, err := ix.listMetas()
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, meta := range metas {
		if meta.Kind == KindSealed {
			continue
		}
		if meta.SearchText == "" {
			continue
		}

		// Cheap pre-filter bounds the cost of the full scan: a record
		// with no token substring match and no tag overlap can never
		// score above zero.
		anyToken := false
		for _, t := range qTokens {
			if strings.Contains(meta.SearchText, t) {
				anyToken = true
				break
			}
		}
		if !anyToken && tagOverlap(meta.Tags, qTokens) == 0 {
			continue
		}

		tTokens := Tokenize(meta.SearchText)
		tSet := make(map[string]struct{}, len(tTokens))
		for _, t := range tTokens {
			tSet[t] = struct{}{}
		}

		importance := meta.Importance
		if importance < 0 {
			importance = 0
		} else if importance > 1 {
			importance = 1
		}

		score := jaccard(qSet, tSet)*weightJaccard +
			float64(tagOverlap(meta.Tags, qTokens))*weightTagOverlap +
			importance*weightImportance +
			ix.recencyBoost(meta.UpdatedAtMs)*weightRecency

		if strings.Contains(meta.SearchText, q) {
			score += exactMatchBonus
		}

		if score <= 0 {
			continue
		}

		entry, err := ix.LoadEntry(meta.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ID: meta.ID, Score: score, Entry: entry, Meta: meta})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// BestHit returns the single highest-scoring record, if any.
func (ix *Index) BestHit(query string) (Hit, bool, error) {
	hits, err := ix.SearchTopK(query, 1)
	if err != nil || len(hits) == 0 {
		return Hit{}, false, err
	}
	return hits[0], true, nil
}

// BuildContext renders the top hits as a [Relevant Memories] block for
// inclusion in a worker prompt. No hits yields an empty string, never an
// error: recall is strictly best-effort.
func (ix *Index) BuildContext(query string, limit int) string {
	hits, err := ix.SearchTopK(query, limit)
	if err != nil {
		ix.logger.Warn("memory recall failed", zap.Error(err))
		return ""
	}
	if len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n[Relevant Memories]\n")
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- (score=%.2f) Q: %s / A: %s",
			h.Score, truncateRunes(h.Entry.Input.Text, 80), truncateRunes(h.Entry.Output.Text, 120))
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
