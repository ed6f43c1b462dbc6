package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

var (
	contextMaxChunks  int
	contextEmbeddings bool
	contextJSON       bool
	contextText       bool
)

var contextCmd = &cobra.Command{
	Use:   "context [key] [query]",
	Short: "Show the context assembled for a question",
	Long: `Assembles the bounded context that would be handed to a model for a
question about one partner or session.

When both contracts and payout reports are indexed for the key, the budget
is split between them so that both sides of a discrepancy are represented.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runContext,
}

var (
	analyseMaxChunks int
	analyseJSON      bool
)

var analyseCmd = &cobra.Command{
	Use:   "analyse [key] [question]",
	Short: "Ask a question about a partner's documents",
	Long: `Assembles context for a partner or session and asks the configured LLM.
Without a question the default payout discrepancy analysis is run.`,
	Aliases: []string{"analyze"},
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAnalyse,
}

var (
	queryMaxDocs int
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question across every partner",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	contextCmd.Flags().IntVarP(&contextMaxChunks, "max-chunks", "n", domain.DefaultMaxChunks, "maximum number of chunks")
	contextCmd.Flags().BoolVar(&contextEmbeddings, "embeddings", false, "break score ties with embedding similarity")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the context as JSON")
	contextCmd.Flags().BoolVar(&contextText, "text", false, "print the formatted context only")
	rootCmd.AddCommand(contextCmd)

	analyseCmd.Flags().IntVarP(&analyseMaxChunks, "max-chunks", "n", domain.DefaultMaxChunks, "maximum number of chunks")
	analyseCmd.Flags().BoolVar(&analyseJSON, "json", false, "output the analysis as JSON")
	rootCmd.AddCommand(analyseCmd)

	queryCmd.Flags().IntVarP(&queryMaxDocs, "max-docs", "n", domain.DefaultQueryAllMaxDocs, "maximum number of chunks")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	req := domain.ContextRequest{
		Key:           args[0],
		Query:         strings.Join(args[1:], " "),
		Budget:        domain.RetrievalBudget{MaxChunks: contextMaxChunks},
		UseEmbeddings: contextEmbeddings,
	}
	assembled, err := retrievalService.Context(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("context failed: %w", err)
	}

	switch {
	case contextJSON:
		return printJSON(cmd, assembled)
	case contextText:
		cmd.Println(assembled.Text)
		return nil
	}

	mode := "pooled"
	if assembled.Balanced {
		mode = "balanced"
	}
	cmd.Printf("Context for %s (%d chunks, %s):\n\n", assembled.Key, len(assembled.Chunks), mode)
	printChunks(cmd, assembled.Chunks)
	return nil
}

func runAnalyse(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	req := domain.ContextRequest{
		Key:    args[0],
		Query:  strings.Join(args[1:], " "),
		Budget: domain.RetrievalBudget{MaxChunks: analyseMaxChunks},
	}
	analysis, err := retrievalService.Analyse(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if analyseJSON {
		return printJSON(cmd, analysis)
	}
	printAnalysis(cmd, analysis)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := requireRetrieval(); err != nil {
		return err
	}

	analysis, err := retrievalService.QueryAll(cmd.Context(), strings.Join(args, " "), queryMaxDocs)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if queryJSON {
		return printJSON(cmd, analysis)
	}
	printAnalysis(cmd, analysis)
	return nil
}

func printAnalysis(cmd *cobra.Command, a *domain.Analysis) {
	cmd.Printf("Q: %s\n\n", a.Question)
	cmd.Println(a.Answer)
	printSources(cmd, a.Context.Chunks)
	if a.Model != "" {
		cmd.Printf("\nModel: %s\n", a.Model)
	}
}
