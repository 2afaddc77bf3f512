package chunker

import (
	"fmt"
	"strings"

	"cortex/internal/domain"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of words shared between consecutive
// chunks.
const DefaultOverlap = 200

// Chunk splits text into overlapping word windows. Each chunk holds size
// words and consecutive chunks share overlap words. Splitting is on word
// boundaries and deterministic: the same input always yields the same
// sequence. Empty or whitespace-only input yields an empty sequence.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", domain.ErrInvalidChunking, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrInvalidChunking, overlap, size)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}
	if len(words) <= size {
		return []string{strings.Join(words, " ")}, nil
	}

	var chunks []string
	for i := 0; i < len(words); {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end >= len(words) {
			break
		}
		i += size - overlap
	}
	return chunks, nil
}
