package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", "****"},
		{"abc123", "****"},
		{"12345678", "****"},
		{"sk-proj-1234567890abcdef", "sk-p...cdef"},
		{"sk-ant-REDACTED", "sk-a...mnop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskAPIKey(tt.input), "input %q", tt.input)
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxVal int
		def    int
		want   int
	}{
		{"empty uses default", "", 4, 2, 2},
		{"in range", "3", 4, 2, 3},
		{"lower bound", "1", 4, 2, 1},
		{"upper bound", "4", 4, 2, 4},
		{"zero", "0", 4, 2, 2},
		{"too large", "5", 4, 2, 2},
		{"negative", "-1", 4, 1, 1},
		{"not a number", "qdrant", 4, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseChoice(tt.input, tt.maxVal, tt.def))
		})
	}
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("  acme \nsecond\nlast"))

	assert.Equal(t, "acme", readLine(r))
	assert.Equal(t, "second", readLine(r))
	assert.Equal(t, "last", readLine(r))
	assert.Empty(t, readLine(r))
}

func printed(fn func(cmd *cobra.Command)) string {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	fn(cmd)
	return buf.String()
}

func TestPrintProvider_NotSet(t *testing.T) {
	out := printed(func(cmd *cobra.Command) {
		printProvider(cmd, "", "", "", "", false)
	})
	assert.Contains(t, out, "Provider: (not set)")
	assert.Contains(t, out, "Status: not configured")
}

func TestPrintProvider_CloudMasksKey(t *testing.T) {
	out := printed(func(cmd *cobra.Command) {
		printProvider(cmd, domain.AIProviderOpenAI, "text-embedding-3-small", "", "sk-proj-1234567890abcdef", true)
	})
	assert.Contains(t, out, "OpenAI (cloud)")
	assert.Contains(t, out, "Model: text-embedding-3-small")
	assert.Contains(t, out, "API Key: sk-p...cdef")
	assert.NotContains(t, out, "1234567890")
	assert.NotContains(t, out, "Base URL")
	assert.Contains(t, out, "Status: configured")
}

func TestPrintProvider_MissingKey(t *testing.T) {
	out := printed(func(cmd *cobra.Command) {
		printProvider(cmd, domain.AIProviderAnthropic, "claude-model", "", "", false)
	})
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "Status: not configured")
}

func TestPrintProvider_LocalShowsBaseURL(t *testing.T) {
	out := printed(func(cmd *cobra.Command) {
		printProvider(cmd, domain.AIProviderOllama, "llama3", "http://localhost:11434", "", true)
	})
	assert.Contains(t, out, "Ollama (local)")
	assert.Contains(t, out, "Base URL: http://localhost:11434")
	assert.NotContains(t, out, "API Key")
}
