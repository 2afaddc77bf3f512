package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"cortex/internal/domain"
)

// DOCX extracts plain text from Word documents (OOXML).
type DOCX struct{}

// documentXML mirrors the paragraph structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// Extract opens the document as a ZIP archive and pulls the paragraph text
// out of word/document.xml.
func (DOCX) Extract(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx archive: %v", domain.ErrExtraction, err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open document.xml: %v", domain.ErrExtraction, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: read document.xml: %v", domain.ErrExtraction, err)
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("%w: parse document.xml: %v", domain.ErrExtraction, err)
		}

		var b strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				b.WriteByte('\n')
			}
			for _, run := range para.Runs {
				for _, t := range run.Text {
					b.WriteString(t.Content)
				}
			}
		}
		return strings.TrimSpace(b.String()), nil
	}
	return "", fmt.Errorf("%w: no word/document.xml in archive", domain.ErrExtraction)
}
