// Package chunker splits document text into overlapping, language-tagged
// segments suitable for embedding.
//
// Chunking is a pure function of the input text and options: the same
// input always yields identical chunk boundaries. That determinism is
// what makes chunk indexes stable across incremental reindex runs.
package chunker

import (
	"strings"
	"unicode"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// DefaultChunkSize is the default target chunk length in runes.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping runes.
const DefaultOverlap = 200

// boundarySearchWindow is the fraction of the chunk tail inspected for a
// preferred break point before falling back to a hard cut.
const boundarySearchWindow = 0.2

// hanRatioThreshold is the share of Han runes above which a chunk is
// tagged Chinese.
const hanRatioThreshold = 0.25

// Chunker splits text into overlapping segments.
type Chunker struct {
	chunkSize    int
	overlap      int
	languageHint domain.Language
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithLanguageHint forces a language tag instead of per-chunk detection.
func WithLanguageHint(lang domain.Language) Option {
	return func(c *Chunker) {
		if lang.IsValid() {
			c.languageHint = lang
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for forward progress
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits text into overlapping segments for the given document.
// Operates on runes, so a multibyte character is never split. Boundaries
// prefer paragraph breaks, then sentence terminators, then whitespace,
// searched within the tail of each window.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	estimated := total/(c.chunkSize-c.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	index := 0

	for start < total {
		end := start + c.chunkSize
		if end >= total {
			end = total
		} else {
			end = c.preferredBoundary(runes, start, end)
		}

		segment := strings.TrimSpace(string(runes[start:end]))
		if segment != "" {
			chunks = append(chunks, domain.Chunk{
				DocumentID: documentID,
				Index:      index,
				Text:       segment,
				Language:   c.tagLanguage(segment),
			})
			index++
		}

		if end == total {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// preferredBoundary searches the tail of the window [start, end) for the
// best break point and returns the (possibly shortened) end position.
// Priority: paragraph break, sentence terminator, any whitespace.
func (c *Chunker) preferredBoundary(runes []rune, start, end int) int {
	floor := end - int(float64(c.chunkSize)*boundarySearchWindow)
	if floor <= start {
		return end
	}

	sentence := -1
	space := -1
	for i := end - 1; i >= floor; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
		if sentence < 0 && isSentenceTerminator(runes[i]) {
			sentence = i + 1
		}
		if space < 0 && unicode.IsSpace(runes[i]) {
			space = i + 1
		}
	}

	if sentence > start {
		return sentence
	}
	if space > start {
		return space
	}
	return end
}

// isSentenceTerminator reports whether r ends a sentence in English or
// Chinese text.
func isSentenceTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '；', ';':
		return true
	default:
		return false
	}
}

// tagLanguage returns the hint, or detects the dominant language by the
// share of Han runes among letters.
func (c *Chunker) tagLanguage(text string) domain.Language {
	if c.languageHint.IsValid() {
		return c.languageHint
	}
	return DetectLanguage(text)
}

// DetectLanguage tags text Chinese when Han runes dominate its letters,
// English otherwise.
func DetectLanguage(text string) domain.Language {
	var letters, han int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Han, r) {
				han++
			}
		}
	}
	if letters > 0 && float64(han)/float64(letters) > hanRatioThreshold {
		return domain.LanguageChinese
	}
	return domain.LanguageEnglish
}
