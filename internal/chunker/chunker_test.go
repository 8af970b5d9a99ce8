package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

func TestChunk_EmptyText(t *testing.T) {
	c := New()

	assert.Nil(t, c.Chunk("doc-1", ""))
	assert.Nil(t, c.Chunk("doc-1", "   \n\t  "))
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c := New()

	chunks := c.Chunk("doc-1", "A short paragraph about nothing in particular.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, domain.LanguageEnglish, chunks[0].Language)
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)

	first := c.Chunk("doc-1", text)
	second := c.Chunk("doc-1", text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].Index, second[i].Index)
	}
}

func TestChunk_IndexesAreSequential(t *testing.T) {
	c := New(WithChunkSize(80), WithOverlap(10))
	text := strings.Repeat("Sentences end with periods. ", 40)

	chunks := c.Chunk("doc-1", text)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
	}
}

func TestChunk_PrefersSentenceBoundaries(t *testing.T) {
	c := New(WithChunkSize(60), WithOverlap(0))
	text := "First sentence here. Second sentence follows on. Third sentence ends the text completely now."

	chunks := c.Chunk("doc-1", text)

	require.Greater(t, len(chunks), 1)
	// All but the last chunk should end on a sentence terminator.
	for _, chunk := range chunks[:len(chunks)-1] {
		last := []rune(chunk.Text)[len([]rune(chunk.Text))-1]
		assert.True(t, isSentenceTerminator(last),
			"chunk %q should end at a sentence boundary", chunk.Text)
	}
}

func TestChunk_ProgressWithNoBoundaries(t *testing.T) {
	// A single unbroken run of letters must still terminate and cover
	// the whole text.
	c := New(WithChunkSize(50), WithOverlap(49))
	text := strings.Repeat("a", 500)

	chunks := c.Chunk("doc-1", text)

	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, last.Text))
}

func TestChunk_MultibyteRunesNeverSplit(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(2))
	text := strings.Repeat("中文字符测试", 20)

	chunks := c.Chunk("doc-1", text)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		// Valid UTF-8 round-trip means no rune was cut in half.
		assert.Equal(t, chunk.Text, string([]rune(chunk.Text)))
	}
}

func TestChunk_OverlapClampedWhenTooLarge(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(40))

	// Overlap >= chunk size would stall the loop; the constructor clamps it.
	assert.Less(t, c.overlap, c.chunkSize)
}

func TestChunk_LanguageHintOverridesDetection(t *testing.T) {
	c := New(WithLanguageHint(domain.LanguageChinese))

	chunks := c.Chunk("doc-1", "This text is clearly English.")

	require.Len(t, chunks, 1)
	assert.Equal(t, domain.LanguageChinese, chunks[0].Language)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Language
	}{
		{"english", "The quick brown fox jumps over the lazy dog", domain.LanguageEnglish},
		{"chinese", "这是一段完全使用中文撰写的测试文本", domain.LanguageChinese},
		{"mixed mostly chinese", "机器学习 machine 深度学习 learning 神经网络", domain.LanguageChinese},
		{"numbers only", "123 456 789", domain.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}
