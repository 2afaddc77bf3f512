package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"cortex/internal/domain"
)

// PlainText extracts text from UTF-8 encoded files (txt, markdown, code).
type PlainText struct{}

// Extract decodes data as UTF-8. Binary or undecodable content fails with
// ErrExtraction rather than producing garbled text.
func (PlainText) Extract(data []byte) (string, error) {
	if bytes.ContainsRune(data, 0) {
		return "", fmt.Errorf("%w: binary content in text file", domain.ErrExtraction)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid UTF-8 in text file", domain.ErrExtraction)
	}
	return strings.TrimSpace(string(data)), nil
}
