package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// createTestDOCX creates a minimal DOCX archive in memory.
func createTestDOCX(t *testing.T, body string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types/>`))
	require.NoError(t, err)

	if body != "" {
		doc, err := w.Create(documentPart)
		require.NoError(t, err)
		_, err = doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS +
			`><w:body>` + body + `</w:body></w:document>`))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, "docx", n.Name())
	assert.Equal(t, []string{".docx"}, n.Extensions())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_Paragraphs(t *testing.T) {
	body := `<w:p><w:r><w:t>Partner </w:t></w:r><w:r><w:t>Agreement</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Fee:</w:t><w:tab/><w:t>5%</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`<w:p><w:r><w:t>Penalty applies.</w:t></w:r></w:p>`

	got, err := New().Normalise(context.Background(), createTestDOCX(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Partner Agreement\nFee: 5%\nPenalty applies.", got)
}

func TestNormalise_Table(t *testing.T) {
	body := `<w:p><w:r><w:t>Payout</w:t></w:r></w:p>` +
		`<w:tbl>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Item</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Amount</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Service fee</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>-50</w:t></w:r></w:p></w:tc></w:tr>` +
		`</w:tbl>`

	got, err := New().Normalise(context.Background(), createTestDOCX(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Payout\nItem | Amount\nService fee | -50", got)
}

func TestNormalise_NotZip(t *testing.T) {
	_, err := New().Normalise(context.Background(), []byte("plain text"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_MissingDocumentPart(t *testing.T) {
	_, err := New().Normalise(context.Background(), createTestDOCX(t, ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_MalformedXML(t *testing.T) {
	_, err := New().Normalise(context.Background(), createTestDOCX(t, `<w:p><w:r>`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
