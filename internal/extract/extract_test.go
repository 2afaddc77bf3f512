package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/domain"
)

func TestPlainText_Extract(t *testing.T) {
	text, err := PlainText{}.Extract([]byte("  hello world\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestPlainText_RejectsBinary(t *testing.T) {
	_, err := PlainText{}.Extract([]byte{0x00, 0x01, 0x02})
	require.ErrorIs(t, err, domain.ErrExtraction)
}

func TestPlainText_RejectsInvalidUTF8(t *testing.T) {
	_, err := PlainText{}.Extract([]byte{0xff, 0xfe, 0x41})
	require.ErrorIs(t, err, domain.ErrExtraction)
}

func TestDOCX_Extract(t *testing.T) {
	data := buildDocx(t, `<?xml version="1.0"?>
<document xmlns="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`)

	text, err := DOCX{}.Extract(data)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestDOCX_CorruptArchive(t *testing.T) {
	_, err := DOCX{}.Extract([]byte("not a zip file"))
	require.ErrorIs(t, err, domain.ErrExtraction)
}

func TestDOCX_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/other.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = DOCX{}.Extract(buf.Bytes())
	require.ErrorIs(t, err, domain.ErrExtraction)
}

func TestPDF_CorruptInput(t *testing.T) {
	_, err := PDF{}.Extract([]byte("definitely not a pdf"))
	require.ErrorIs(t, err, domain.ErrExtraction)
}

func TestRegistry_LookupByMIME(t *testing.T) {
	r := Default()

	e, err := r.Lookup("application/pdf", "whatever.bin")
	require.NoError(t, err)
	assert.IsType(t, &PDF{}, e)

	e, err = r.Lookup("text/plain; charset=utf-8", "notes.pdf")
	require.NoError(t, err)
	assert.IsType(t, &PlainText{}, e)
}

func TestRegistry_LookupByExtension(t *testing.T) {
	r := Default()

	e, err := r.Lookup("", "report.docx")
	require.NoError(t, err)
	assert.IsType(t, &DOCX{}, e)

	e, err = r.Lookup("", "README.md")
	require.NoError(t, err)
	assert.IsType(t, &PlainText{}, e)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := Default()
	_, err := r.Lookup("application/octet-stream", "image.png")
	require.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}
