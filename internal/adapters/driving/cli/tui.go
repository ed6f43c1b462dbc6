package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui"
)

var tuiPartner string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for partnerdocs.

Ask questions about a partner's contracts and payout reports, browse the
chunks behind each answer and view per-partner document summaries.
With --partner the ask screen opens directly with that key filled in.

Controls:
  Tab      - Switch between partner and question
  Ctrl+T   - Toggle context / analyse mode
  Enter    - Ask / Select
  1-4      - Open a menu option
  n        - New question
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiPartner, "partner", "p", "", "open the ask screen for this partner or session key")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(retrievalService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(cmd.Context()).WithPartner(tuiPartner)

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
