package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	watchPartner string
	watchSession string
	watchType    string
	watchInitial bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the index in sync with a directory",
	Long: `Watches a directory and re-ingests documents as they are created or
changed. Deleted files are removed from the index.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchPartner, "partner", "p", "", "partner the documents belong to")
	watchCmd.Flags().StringVarP(&watchSession, "session", "s", "", "session key for ad-hoc uploads")
	watchCmd.Flags().StringVarP(&watchType, "type", "t", "", "document type: contract, payout_report or other")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "ingest existing files before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFactory == nil {
		return errors.New("watch service not configured")
	}

	svc, err := watchFactory(args[0])
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", args[0], err)
	}

	req := newIngestRequest(watchPartner, watchSession, watchType)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	stats, err := svc.Run(cmd.Context(), req, watchInitial)
	if stats != nil {
		cmd.Printf("Stopped: %d ingested, %d deleted, %d failed\n", stats.Ingested, stats.Deleted, stats.Failed)
	}
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
