package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"cortex/internal/domain"
)

// PDF extracts plain text from PDF documents.
type PDF struct{}

// Extract reads the text content of every page.
func (PDF) Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %v", domain.ErrExtraction, err)
	}

	text, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", domain.ErrExtraction, err)
	}

	var b bytes.Buffer
	if _, err := io.Copy(&b, text); err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", domain.ErrExtraction, err)
	}
	return strings.TrimSpace(b.String()), nil
}
