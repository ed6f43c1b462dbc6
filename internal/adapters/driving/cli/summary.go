package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary [key]",
	Short: "Summarise the documents indexed for a partner",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chunk index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(summaryCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	summary, err := retrievalService.Summary(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}
	if summaryJSON {
		return printJSON(cmd, summary)
	}

	cmd.Printf("Documents for %s: %d chunks\n", summary.Key, summary.TotalChunks)
	if summary.TotalChunks == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}
	for _, t := range domain.AllDocTypes() {
		ts, ok := summary.DocumentTypes[t]
		if !ok {
			continue
		}
		cmd.Printf("  %s: %d chunks, %d characters\n", t, ts.Count, ts.TotalContentLength)
		cmd.Printf("      %s\n", strings.Join(ts.Files, ", "))
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	stats, err := retrievalService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}
	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Chunks: %d\n", stats.TotalChunks)
	cmd.Printf("Documents: %d\n", stats.UniqueDocuments)
	if len(stats.ByDocType) > 0 {
		cmd.Println()
		cmd.Println("By type:")
		for _, t := range domain.AllDocTypes() {
			if n, ok := stats.ByDocType[t]; ok {
				cmd.Printf("  %s: %d\n", t, n)
			}
		}
	}
	if len(stats.ByPartner) > 0 {
		partners := make([]string, 0, len(stats.ByPartner))
		for p := range stats.ByPartner {
			partners = append(partners, p)
		}
		sort.Strings(partners)

		cmd.Println()
		cmd.Println("By partner:")
		for _, p := range partners {
			cmd.Printf("  %s: %d\n", p, stats.ByPartner[p])
		}
	}
	return nil
}
