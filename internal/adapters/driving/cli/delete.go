package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

var deletePartner, deleteSession string

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Remove a document's chunks from the index",
	Long: `Removes every chunk of a source document. Sources are scoped to the
partner or session that ingested them, as shown by 'partnerdocs ingest'
(for example acme/contract.txt). Pass --partner or --session to give just
the file name.`,
	Example: `  partnerdocs delete acme/acme_contract.txt
  partnerdocs delete acme_contract.txt --partner acme`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVarP(&deletePartner, "partner", "p", "", "partner that owns the source")
	deleteCmd.Flags().StringVarP(&deleteSession, "session", "s", "", "session that owns the source")
	deleteCmd.MarkFlagsMutuallyExclusive("partner", "session")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireIngest(); err != nil {
		return err
	}

	req := domain.IngestRequest{PartnerKey: deletePartner, SessionKey: deleteSession}
	source := domain.ScopedSourceID(req.Owner(), args[0])

	n, err := ingestService.DeleteSource(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Deleted %d chunks of %s\n", n, source)
	return nil
}
