package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsCommand(t *testing.T) {
	assert.True(t, ContainsCommand("EXEC:firefox"))
	assert.True(t, ContainsCommand("sure thing SAVE: notes.txt ||| hi"))
	assert.True(t, ContainsCommand("LOOK"))
	assert.False(t, ContainsCommand("just a chat reply"))
	assert.False(t, ContainsCommand("NO"))

	// PRESS: and WAIT: run only inside a triggered chain; on their own
	// the reply is final verbatim.
	assert.False(t, ContainsCommand("PRESS: enter"))
	assert.False(t, ContainsCommand("WAIT: 500"))
	assert.True(t, ContainsCommand("EXEC:notepad && PRESS:enter && WAIT:500"))
}

func TestParseChain(t *testing.T) {
	cmds := Parse("EXEC:notepad && WAIT:1 && TYPE:hello world @ notepad && PRESS:enter")
	require.Len(t, cmds, 4)

	assert.Equal(t, Command{Kind: Exec, Arg: "notepad"}, cmds[0])
	assert.Equal(t, Command{Kind: Wait, Arg: "1"}, cmds[1])
	assert.Equal(t, Command{Kind: Type, Target: "notepad", Content: "hello world"}, cmds[2])
	assert.Equal(t, Command{Kind: Press, Arg: "enter"}, cmds[3])
}

func TestParseSkipsNoiseSegments(t *testing.T) {
	assert.Empty(t, Parse("NO"))
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("I cannot do that && really"))

	cmds := Parse("some preamble && EXEC:code && trailing chatter")
	require.Len(t, cmds, 1)
	assert.Equal(t, Exec, cmds[0].Kind)
}

func TestParsePrecedence(t *testing.T) {
	t.Run("search beats embedded separator", func(t *testing.T) {
		cmds := Parse("SEARCH: weather ||| X")
		require.Len(t, cmds, 1)
		assert.Equal(t, Search, cmds[0].Kind)
		assert.Equal(t, "weather ||| X", cmds[0].Arg)
	})

	t.Run("bare markers need whole-token equality", func(t *testing.T) {
		assert.Empty(t, Parse("LOOK AROUND"))
		cmds := Parse("LOOK")
		require.Len(t, cmds, 1)
		assert.Equal(t, Look, cmds[0].Kind)
	})

	t.Run("save tolerates EXECUTE prefix", func(t *testing.T) {
		cmds := Parse("EXECUTE SAVE: notes.txt ||| buy milk")
		require.Len(t, cmds, 1)
		assert.Equal(t, Command{Kind: Save, Filename: "notes.txt", Content: "buy milk"}, cmds[0])
	})
}

func TestParseSave(t *testing.T) {
	t.Run("missing separator is invalid", func(t *testing.T) {
		cmds := Parse("SAVE: notes.txt buy milk")
		require.Len(t, cmds, 1)
		assert.Equal(t, Invalid, cmds[0].Kind)
		assert.Equal(t, "notes.txt buy milk", cmds[0].Arg)
	})

	t.Run("content keeps inner pipes", func(t *testing.T) {
		cmds := Parse("SAVE: t.txt ||| a | b ||| c")
		require.Len(t, cmds, 1)
		assert.Equal(t, "t.txt", cmds[0].Filename)
		assert.Equal(t, "a | b ||| c", cmds[0].Content)
	})
}

func TestParseType(t *testing.T) {
	t.Run("without target", func(t *testing.T) {
		cmds := Parse("TYPE:hello")
		require.Len(t, cmds, 1)
		assert.Equal(t, Command{Kind: Type, Content: "hello"}, cmds[0])
	})

	t.Run("bare at-sign splits", func(t *testing.T) {
		cmds := Parse("TYPE:hello@notepad")
		require.Len(t, cmds, 1)
		assert.Equal(t, "hello", cmds[0].Content)
		assert.Equal(t, "notepad", cmds[0].Target)
	})

	t.Run("first at-sign wins", func(t *testing.T) {
		cmds := Parse("TYPE:ping @ terminal @ extra")
		require.Len(t, cmds, 1)
		assert.Equal(t, "ping", cmds[0].Content)
		assert.Equal(t, "terminal @ extra", cmds[0].Target)
	})
}
