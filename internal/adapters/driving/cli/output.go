package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printChunks(cmd *cobra.Command, chunks []domain.Chunk) {
	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("  [%d] %s #%d (%s)\n", i+1, c.SourceDocID, c.Ordinal, c.DocType)
		cmd.Printf("      %s\n", snippet(c.Content, 120))
	}
}

func printSources(cmd *cobra.Command, chunks []domain.Chunk) {
	seen := make(map[string]bool)
	var sources []string
	for i := range chunks {
		if !seen[chunks[i].SourceDocID] {
			seen[chunks[i].SourceDocID] = true
			sources = append(sources, chunks[i].SourceDocID)
		}
	}
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, s := range sources {
		cmd.Printf("  - %s\n", s)
	}
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
