package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return ix
}

func TestValidate(t *testing.T) {
	t.Run("importance out of range rejected", func(t *testing.T) {
		m := Meta{ID: "x", Kind: KindShortTerm, Importance: 1.5}
		err := m.Validate()
		assert.ErrorIs(t, err, ErrInvalidMeta)
	})

	t.Run("sealed without reason rejected", func(t *testing.T) {
		m := Meta{ID: "x", Kind: KindSealed, Importance: 0.5}
		assert.ErrorIs(t, m.Validate(), ErrInvalidMeta)
	})

	t.Run("sealed with reason accepted", func(t *testing.T) {
		m := Meta{ID: "x", Kind: KindSealed, Importance: 0.5, SealedReason: "operator request"}
		assert.NoError(t, m.Validate())
	})
}

func TestSaveRejectsInvalidMetaWithoutPartialWrite(t *testing.T) {
	ix := newTestIndex(t)

	entry := Entry{ID: "bad", SessionID: "s1", Input: IOBlock{Text: "q"}, Output: IOBlock{Text: "a"}}
	meta := Meta{ID: "bad", Kind: KindShortTerm, Importance: 2.0, SearchText: "q a"}

	err := ix.Save(entry, meta)
	require.ErrorIs(t, err, ErrInvalidMeta)

	_, err = ix.LoadEntry("bad")
	assert.Error(t, err, "entry file must not exist after a rejected write")
	_, err = ix.LoadMeta("bad")
	assert.Error(t, err, "meta file must not exist after a rejected write")
}

func TestRecordCreatesDistinctRecords(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Record("s1", "what is go", "a language", "llm", "gpt", "", nil))
	require.NoError(t, ix.Record("s1", "what is go", "a language", "llm", "gpt", "", nil))

	metas, err := ix.listMetas()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.NotEqual(t, metas[0].ID, metas[1].ID)
}

func TestSearchTopK(t *testing.T) {
	ix := newTestIndex(t)
	now := time.Now().UnixMilli()

	save := func(id string, kind Kind, importance float64, text string, updatedAt int64, tags ...string) {
		t.Helper()
		meta := Meta{
			ID: id, Kind: kind, Importance: importance, Tags: tags,
			CreatedAtMs: updatedAt, UpdatedAtMs: updatedAt,
			SearchText: Normalize(text),
		}
		if kind == KindSealed {
			meta.SealedReason = "test seal"
		}
		require.NoError(t, ix.Save(Entry{
			ID: id, SessionID: "s1", TimestampMs: updatedAt,
			Input: IOBlock{Text: text}, Output: IOBlock{Text: "answer for " + id},
		}, meta))
	}

	save("aaa", KindShortTerm, 0.5, "the weather in tokyo today", now)
	save("bbb", KindLongTerm, 0.9, "favorite weather station data", now)
	save("ccc", KindSealed, 0.9, "sealed weather secret", now)
	save("ddd", KindShortTerm, 0.5, "completely unrelated topic", now)

	t.Run("empty query returns nothing", func(t *testing.T) {
		hits, err := ix.SearchTopK("   ", 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("sealed records are excluded", func(t *testing.T) {
		hits, err := ix.SearchTopK("weather", 10)
		require.NoError(t, err)
		for _, h := range hits {
			assert.NotEqual(t, "ccc", h.ID)
		}
		assert.NotEmpty(t, hits)
	})

	t.Run("scores are non-increasing", func(t *testing.T) {
		hits, err := ix.SearchTopK("weather tokyo", 10)
		require.NoError(t, err)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		}
	})

	t.Run("prefiltered records never load entries", func(t *testing.T) {
		hits, err := ix.SearchTopK("weather", 10)
		require.NoError(t, err)
		for _, h := range hits {
			assert.NotEqual(t, "ddd", h.ID)
		}
	})

	t.Run("truncates to k", func(t *testing.T) {
		hits, err := ix.SearchTopK("weather", 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})
}

func TestImportanceAndRecencyDominance(t *testing.T) {
	// An important fresh record with a verbatim match must beat an
	// otherwise-identical unimportant 29-day-old one.
	ix := newTestIndex(t)
	now := time.Now()
	old := now.Add(-29 * 24 * time.Hour)

	text := "the capital of france is paris"

	strong := Meta{
		ID: "strong", Kind: KindShortTerm, Importance: 0.9,
		CreatedAtMs: now.UnixMilli(), UpdatedAtMs: now.UnixMilli(),
		SearchText: Normalize(text),
	}
	weak := Meta{
		ID: "weak", Kind: KindShortTerm, Importance: 0.1,
		CreatedAtMs: old.UnixMilli(), UpdatedAtMs: old.UnixMilli(),
		SearchText: Normalize(text),
	}
	require.NoError(t, ix.Save(Entry{ID: "strong", Input: IOBlock{Text: text}}, strong))
	require.NoError(t, ix.Save(Entry{ID: "weak", Input: IOBlock{Text: text}}, weak))

	hits, err := ix.SearchTopK(text, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "strong", hits[0].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestBuildContext(t *testing.T) {
	ix := newTestIndex(t)

	t.Run("empty when no hits", func(t *testing.T) {
		assert.Equal(t, "", ix.BuildContext("anything", 3))
	})

	t.Run("renders snippets", func(t *testing.T) {
		require.NoError(t, ix.Record("s1", "what is the weather in tokyo", "sunny and mild", "llm", "gpt", "", nil))
		out := ix.BuildContext("weather tokyo", 3)
		assert.Contains(t, out, "[Relevant Memories]")
		assert.Contains(t, out, "Q: what is the weather in tokyo")
		assert.Contains(t, out, "A: sunny and mild")
	})

	t.Run("long text truncated", func(t *testing.T) {
		long := make([]byte, 0, 300)
		for i := 0; i < 300; i++ {
			long = append(long, 'x')
		}
		require.NoError(t, ix.Record("s1", "padding "+string(long), string(long), "llm", "gpt", "", nil))
		out := ix.BuildContext("padding", 3)
		for _, line := range strings.Split(out, "\n") {
			assert.LessOrEqual(t, len([]rune(line)), 250)
		}
	})
}
