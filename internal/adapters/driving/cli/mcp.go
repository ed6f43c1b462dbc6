package cli

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can retrieve
partner context and run analyses.

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead. In HTTP mode Prometheus
metrics are served on /metrics and a health check on /healthz,
alongside the MCP endpoint. --host picks the interface (default
127.0.0.1; use 0.0.0.0 to listen on all interfaces).

Examples:
  # Stdio mode (default)
  partnerdocs mcp serve

  # HTTP mode
  partnerdocs mcp serve --port 8080

  # HTTP mode, reachable from other hosts
  partnerdocs mcp serve --host 0.0.0.0 --port 8080

Client configuration:
  {
    "mcpServers": {
      "partnerdocs": {
        "command": "/path/to/partnerdocs",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", "127.0.0.1", "HTTP interface to bind")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Ingest:    ingestService,
	}

	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if port > 0 {
		host, err := cmd.Flags().GetString("host")
		if err != nil {
			return fmt.Errorf("getting host flag: %w", err)
		}
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		var extra map[string]http.Handler
		if metricsHandler != nil {
			extra = map[string]http.Handler{"/metrics": metricsHandler}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr, extra)
	}

	return server.Run(cmd.Context())
}
