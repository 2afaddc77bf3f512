package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/domain"
)

func TestChunk_WordWindows(t *testing.T) {
	chunks, err := Chunk("the quick brown fox jumps", 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"the quick brown", "brown fox jumps"}, chunks)
}

func TestChunk_FitsInOneChunk(t *testing.T) {
	chunks, err := Chunk("just three words", 10, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"just three words"}, chunks)
}

func TestChunk_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := Chunk(text, 3, 1)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunk_InvalidParameters(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 3, 3},
		{"overlap exceeds size", 3, 5},
		{"zero size", 0, 0},
		{"negative overlap", 3, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Chunk("some text here", tc.size, tc.overlap)
			require.ErrorIs(t, err, domain.ErrInvalidChunking)
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 40)
	first, err := Chunk(text, 7, 2)
	require.NoError(t, err)
	second, err := Chunk(text, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunk_OverlapSharesWords(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks, err := Chunk(text, 4, 2)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		tail := strings.Join(prev[len(prev)-2:], " ")
		head := strings.Join(cur[:2], " ")
		assert.Equal(t, tail, head)
	}
}

func TestChunk_CoversAllWords(t *testing.T) {
	text := "a b c d e f g h i j k"
	chunks, err := Chunk(text, 3, 1)
	require.NoError(t, err)

	joined := strings.Join(chunks, " ")
	for _, w := range strings.Fields(text) {
		assert.Contains(t, strings.Fields(joined), w)
	}
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(last, "k"))
}
