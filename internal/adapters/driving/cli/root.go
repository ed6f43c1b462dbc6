// Package cli provides the partnerdocs command line interface.
package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// WatchServiceFactory builds a watch service for a directory.
type WatchServiceFactory func(root string) (driving.WatchService, error)

// Services holds the driving ports the commands call into.
// Any field may be nil; commands that need a missing service fail with
// a "not configured" error.
type Services struct {
	Ingest         driving.IngestService
	Retrieval      driving.RetrievalService
	Settings       driving.SettingsService
	Watch          WatchServiceFactory
	MetricsHandler http.Handler
}

var (
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	settingsService  driving.SettingsService
	watchFactory     WatchServiceFactory
	metricsHandler   http.Handler
)

var (
	verbose  bool
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "partnerdocs",
	Short: "Answer questions about partner contracts and payout reports",
	Long: `partnerdocs indexes partner contracts and payout reports and assembles
bounded, type-balanced context from them for question answering.

Ingest documents with 'partnerdocs ingest', inspect what a model would see
with 'partnerdocs context', and ask questions with 'partnerdocs analyse'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetJSON(jsonLogs)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
}

// SetServices wires the driving ports used by the commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	retrievalService = s.Retrieval
	settingsService = s.Settings
	watchFactory = s.Watch
	metricsHandler = s.MetricsHandler
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as watch and mcp serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func requireRetrieval() error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	return nil
}

func requireIngest() error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	return nil
}
