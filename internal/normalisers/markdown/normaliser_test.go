package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, "markdown", n.Name())
	assert.Equal(t, []string{".md", ".markdown"}, n.Extensions())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_StripsFormatting(t *testing.T) {
	input := "# Partner Agreement\r\n\r\n" +
		"## 3. Fees\n\n" +
		"- A **service fee** of 5% applies.\n" +
		"* See [schedule B](https://example.com/b).\n\n" +
		"> Penalties are `capped`.\n\n" +
		"---\n\n" +
		"![logo](logo.png)\n"

	got, err := New().Normalise(context.Background(), []byte(input))
	require.NoError(t, err)

	assert.Contains(t, got, "Partner Agreement")
	assert.Contains(t, got, "3. Fees")
	assert.Contains(t, got, "A service fee of 5% applies.")
	assert.Contains(t, got, "See schedule B.")
	assert.Contains(t, got, "Penalties are capped.")
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "https://")
	assert.NotContains(t, got, "logo")
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "---")
}

func TestNormalise_KeepsNumberedClausesAndTables(t *testing.T) {
	input := "1. Term\n2. Termination\n\n| Item | Amount |\n|------|-------:|\n| Fee | 50 |\n"

	got, err := New().Normalise(context.Background(), []byte(input))
	require.NoError(t, err)

	assert.Contains(t, got, "1. Term")
	assert.Contains(t, got, "2. Termination")
	assert.Contains(t, got, "| Fee | 50 |")
	assert.NotContains(t, got, "|------|")
}

func TestNormalise_CodeFenceBodyKept(t *testing.T) {
	input := "```\nnet = gross - fee\n```"

	got, err := New().Normalise(context.Background(), []byte(input))
	require.NoError(t, err)
	assert.Equal(t, "net = gross - fee", got)
}

func TestNormalise_CollapsesBlankLines(t *testing.T) {
	got, err := New().Normalise(context.Background(), []byte("a\n\n\n\n\nb"))
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", got)
}
