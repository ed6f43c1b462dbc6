package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui"
)

func TestTUICmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"tui"})
	require.NoError(t, err)
	assert.Same(t, tuiCmd, cmd)
	assert.Equal(t, "Launch the interactive terminal UI", tuiCmd.Short)

	flag := tuiCmd.Flags().Lookup("partner")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
}

func TestTUICmd_HelpOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("tui", "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "interactive terminal user interface")
	assert.Contains(t, out, "Controls:")
	assert.Contains(t, out, "Ctrl+T")
	assert.Contains(t, out, "--partner")
}

func TestTUICmd_RequiresRetrieval(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	retrievalService = nil

	err := runTUI(tuiCmd, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, tui.ErrMissingRetrievalService)
}
