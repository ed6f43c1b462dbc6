package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

var (
	ingestPartner string
	ingestSession string
	ingestType    string
	ingestName    string
	ingestExts    []string
	ingestJSON    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Index a document or a directory of documents",
	Long: `Segments, embeds and indexes a contract or payout report.

The path may be a file, a directory (every .txt and .md file in it is
ingested) or "-" to read text from stdin, in which case --name is required.

Document types are inferred from file names containing "contract" or
"payout" unless --type is given. Without --partner or --session a new
session key is generated and printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestPartner, "partner", "p", "", "partner the documents belong to")
	ingestCmd.Flags().StringVarP(&ingestSession, "session", "s", "", "session key for ad-hoc uploads")
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "document type: contract, payout_report or other")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name when reading from stdin")
	ingestCmd.Flags().StringSliceVar(&ingestExts, "ext", nil, "file extensions to ingest from directories")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func newIngestRequest(partner, session, docType string) domain.IngestRequest {
	req := domain.IngestRequest{
		PartnerKey: partner,
		SessionKey: session,
	}
	if docType != "" {
		req.DocType = domain.ParseDocType(docType)
	}
	return req
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireIngest(); err != nil {
		return err
	}

	path := args[0]
	req := newIngestRequest(ingestPartner, ingestSession, ingestType)

	if path == "-" {
		return ingestStdin(cmd, req)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", path, err)
	}

	if info.IsDir() {
		result, err := ingestService.IngestDirectory(cmd.Context(), path, ingestExts, req)
		if result == nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		if ingestJSON {
			if jerr := printJSON(cmd, result); jerr != nil {
				return jerr
			}
		} else {
			printDirectoryResult(cmd, result)
		}
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		return nil
	}

	result, err := ingestService.IngestFile(cmd.Context(), path, req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if ingestJSON {
		return printJSON(cmd, result)
	}
	printIngestResult(cmd, result)
	return nil
}

func ingestStdin(cmd *cobra.Command, req domain.IngestRequest) error {
	if ingestName == "" {
		return errors.New("--name is required when reading from stdin")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	req.Text = string(data)
	req.FileName = filepath.Base(ingestName)
	result, err := ingestService.IngestText(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if ingestJSON {
		return printJSON(cmd, result)
	}
	printIngestResult(cmd, result)
	return nil
}

func printIngestResult(cmd *cobra.Command, r *domain.IngestResult) {
	cmd.Printf("Ingested %s: %d/%d chunks indexed", r.Source, r.Indexed, r.TotalChunks)
	if r.Embedded > 0 || r.EmbeddingFailures > 0 {
		cmd.Printf(", %d embedded", r.Embedded)
	}
	cmd.Println()
	if r.EmbeddingFailures > 0 {
		cmd.Printf("  Warning: %d chunks were indexed without embeddings\n", r.EmbeddingFailures)
	}
	if r.Failed > 0 {
		cmd.Printf("  Warning: %d chunks failed to index\n", r.Failed)
	}
	if r.SessionKey != "" {
		cmd.Printf("Session key: %s\n", r.SessionKey)
	}
}

func printDirectoryResult(cmd *cobra.Command, r *domain.DirectoryIngestResult) {
	cmd.Printf("Processed %d files from %s\n", r.TotalFiles, r.Directory)
	for _, f := range r.Files {
		if f.Err != nil {
			cmd.Printf("  ✗ %s: %v\n", f.Source, f.Err)
			continue
		}
		cmd.Printf("  ✓ %s (%d chunks)\n", f.Source, f.Indexed)
	}
	cmd.Printf("Successful: %d, failed: %d, chunks indexed: %d/%d\n",
		r.Successful, r.FailedFiles, r.IndexedChunks, r.TotalChunks)
	if r.CancelledEarly {
		cmd.Println("Cancelled before all files were processed.")
	}
	if len(r.Files) > 0 && r.Files[0].SessionKey != "" {
		cmd.Printf("Session key: %s\n", r.Files[0].SessionKey)
	}
}
