package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestIngestCmd_File(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "acme_contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("Fee is 5%."), 0o600))

	out, err := executeCommand("ingest", path, "--partner", "acme", "--type", "contract")

	require.NoError(t, err)
	assert.Equal(t, path, services.ingest.lastPath)
	assert.Equal(t, "acme", services.ingest.lastReq.PartnerKey)
	assert.Equal(t, domain.DocTypeContract, services.ingest.lastReq.DocType)
	assert.Contains(t, out, "Ingested acme_contract.txt: 4/4 chunks indexed, 3 embedded")
	assert.Contains(t, out, "1 chunks were indexed without embeddings")
}

func TestIngestCmd_Directory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	out, err := executeCommand("ingest", dir, "--session", "s1", "--ext", ".txt,.md")

	require.NoError(t, err)
	assert.Equal(t, dir, services.ingest.lastPath)
	assert.Equal(t, []string{".txt", ".md"}, services.ingest.lastExts)
	assert.Equal(t, "s1", services.ingest.lastReq.SessionKey)
	assert.Contains(t, out, "Processed 2 files")
	assert.Contains(t, out, "✓ acme_contract.txt (2 chunks)")
	assert.Contains(t, out, "✗ broken.txt")
	assert.Contains(t, out, "Successful: 1, failed: 1")
	assert.Contains(t, out, "Session key: s1")
}

func TestIngestCmd_DirectoryAllFailed(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.ingest.dirErr = errBoom

	out, err := executeCommand("ingest", t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, out, "Processed 2 files")
}

func TestIngestCmd_Stdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("Net payout 900."))
	out, err := executeCommand("ingest", "-", "--name", "uploads/acme_payout.txt", "--partner", "acme")

	require.NoError(t, err)
	assert.Equal(t, "Net payout 900.", services.ingest.lastReq.Text)
	assert.Equal(t, "acme_payout.txt", services.ingest.lastReq.FileName)
	assert.Contains(t, out, "Ingested acme_payout.txt: 3/3 chunks indexed")
}

func TestIngestCmd_StdinRequiresName(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("ingest", "-")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name is required")
}

func TestIngestCmd_MissingPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("ingest", filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to access")
}

func TestIngestCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("text"))
	out, err := executeCommand("ingest", "-", "--name", "a.txt", "--json")

	require.NoError(t, err)
	var result domain.IngestResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3, result.Indexed)
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := executeCommand("ingest", "-", "--name", "a.txt")

	assert.EqualError(t, err, "ingest service not configured")
}

func TestNewIngestRequest(t *testing.T) {
	req := newIngestRequest("acme", "", "payout_report")
	assert.Equal(t, "acme", req.PartnerKey)
	assert.Equal(t, domain.DocTypePayoutReport, req.DocType)

	req = newIngestRequest("", "s1", "")
	assert.Equal(t, "s1", req.SessionKey)
	assert.Empty(t, req.DocType)

	assert.Equal(t, domain.DocTypeOther, newIngestRequest("", "", "invoice").DocType)
}

func TestContextCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("context", "acme", "why", "was", "the", "payout", "low", "-n", "4", "--embeddings")

	require.NoError(t, err)
	req := services.retrieval.lastReq
	assert.Equal(t, "acme", req.Key)
	assert.Equal(t, "why was the payout low", req.Query)
	assert.Equal(t, 4, req.Budget.MaxChunks)
	assert.True(t, req.UseEmbeddings)
	assert.Contains(t, out, "Context for acme (3 chunks, balanced)")
	assert.Contains(t, out, "[3] acme_payout.txt #0 (payout_report)")
}

func TestContextCmd_Text(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("context", "acme", "fees", "--text")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "DOCUMENT 1 (CONTRACT):"))
}

func TestContextCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.retrieval.err = domain.ErrNoDocuments

	_, err := executeCommand("context", "nobody", "fees")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.Contains(t, err.Error(), "context failed")
}

func TestContextCmd_RequiresQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("context", "acme")

	assert.Error(t, err)
}

func TestAnalyseCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("analyse", "acme", "was", "the", "fee", "applied", "twice")

	require.NoError(t, err)
	assert.Equal(t, "was the fee applied twice", services.retrieval.lastReq.Query)
	assert.Equal(t, domain.DefaultMaxChunks, services.retrieval.lastReq.Budget.MaxChunks)
	assert.Contains(t, out, "Q: was the fee applied twice")
	assert.Contains(t, out, "The fee was deducted twice.")
	assert.Equal(t, 1, strings.Count(out, "- acme_contract.txt"))
	assert.Contains(t, out, "- acme_payout.txt")
	assert.Contains(t, out, "Model: mock-llm")
}

func TestAnalyseCmd_DefaultQuestionAndAlias(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("analyze", "acme")

	require.NoError(t, err)
	assert.Equal(t, "acme", services.retrieval.lastReq.Key)
	assert.Empty(t, services.retrieval.lastReq.Query)
}

func TestAnalyseCmd_LLMUnavailable(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.retrieval.err = domain.ErrLLMUnavailable

	_, err := executeCommand("analyse", "acme", "fees")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestQueryCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("query", "which", "partners", "were", "underpaid", "--max-docs", "20")

	require.NoError(t, err)
	assert.Equal(t, "which partners were underpaid", services.retrieval.lastQuestion)
	assert.Equal(t, 20, services.retrieval.lastMaxDocs)
	assert.Contains(t, out, "Two partners are affected.")
}

func TestQueryCmd_DefaultMaxDocs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("query", "fees")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQueryAllMaxDocs, services.retrieval.lastMaxDocs)
}

func TestRetrievalCmds_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	for _, args := range [][]string{
		{"context", "acme", "fees"},
		{"analyse", "acme"},
		{"query", "fees"},
		{"summary", "acme"},
		{"stats"},
	} {
		_, err := executeCommand(args...)
		assert.EqualError(t, err, "retrieval service not configured", "%v", args)
	}
}

func TestSummaryCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("summary", "acme")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents for acme: 3 chunks")
	assert.Contains(t, out, "contract: 2 chunks, 31 characters")
	assert.Contains(t, out, "acme_payout.txt")
	assert.Less(t, strings.Index(out, "contract:"), strings.Index(out, "payout_report:"))
}

func TestSummaryCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.retrieval.summary = &domain.PartnerSummary{DocumentTypes: map[domain.DocType]domain.DocTypeSummary{}}

	out, err := executeCommand("summary", "nobody")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents for nobody: 0 chunks")
	assert.Contains(t, out, "No documents indexed.")
}

func TestSummaryCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("summary", "acme", "--json")

	require.NoError(t, err)
	var summary domain.PartnerSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "acme", summary.Key)
	assert.Equal(t, 2, summary.DocumentTypes[domain.DocTypeContract].Count)
}

func TestStatsCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Chunks: 7")
	assert.Contains(t, out, "Documents: 3")
	assert.Contains(t, out, "contract: 4")
	assert.Less(t, strings.Index(out, "acme: 3"), strings.Index(out, "globex: 4"))
}

func TestDeleteCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("delete", "acme_contract.txt")

	require.NoError(t, err)
	assert.Equal(t, "acme_contract.txt", services.ingest.deleted)
	assert.Contains(t, out, "Deleted 5 chunks of acme_contract.txt")
}

func TestDeleteCmd_ScopesToPartner(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("delete", "contract.txt", "--partner", "acme")

	require.NoError(t, err)
	assert.Equal(t, "acme/contract.txt", services.ingest.deleted)
	assert.Contains(t, out, "of acme/contract.txt")
}

func TestDeleteCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.ingest.err = domain.ErrNotFound

	_, err := executeCommand("delete", "missing.txt")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWatchCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("watch", "/docs", "--partner", "acme", "--initial=false")

	require.NoError(t, err)
	assert.Equal(t, "/docs", services.watchRoot)
	assert.Equal(t, "acme", services.watch.lastReq.PartnerKey)
	assert.False(t, services.watch.lastInitial)
	assert.Contains(t, out, "Watching /docs")
	assert.Contains(t, out, "Stopped: 2 ingested, 1 deleted, 0 failed")
}

func TestWatchCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.watch.err = errBoom

	out, err := executeCommand("watch", "/docs")

	assert.ErrorIs(t, err, errBoom)
	assert.True(t, services.watch.lastInitial)
	assert.Contains(t, out, "Stopped:")
}

func TestWatchCmd_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := executeCommand("watch", "/docs")

	assert.EqualError(t, err, "watch service not configured")
}

func TestMCPServeCmd_PortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_HostFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("host")
	require.NotNil(t, flag)
	assert.Equal(t, "127.0.0.1", flag.DefValue)
}

func TestMCPServeCmd_RequiresRetrieval(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := executeCommand("mcp", "serve")

	assert.Error(t, err)
}

func TestSettingsShowCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("settings", "show")

	require.NoError(t, err)
	for _, section := range []string{"[Chunking]", "[Embedding]", "[LLM]", "[Index]", "[Retrieval]"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "Backend: SQLite (local file)")
	assert.Contains(t, out, "Cache TTL: until invalidated")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_Invalid(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.settings.validateErr = domain.ErrInvalidInput

	out, err := executeCommand("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Run 'partnerdocs settings wizard'")
}

func TestSettingsIndexCmd_Remote(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("3\nlocalhost:6334\n"))
	out, err := executeCommand("settings", "index")

	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendQdrant, services.settings.settings.Index.Backend)
	assert.Equal(t, "localhost:6334", services.settings.settings.Index.URL)
	assert.Contains(t, out, "Index backend set to: Qdrant (vector database)")
}

func TestSettingsIndexCmd_RemoteRequiresURL(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("4\n\n"))
	_, err := executeCommand("settings", "index")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection URL is required")
}

func TestSettingsWizardCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	// Default index, skip embeddings, Ollama LLM with its default model.
	rootCmd.SetIn(strings.NewReader("\nn\n1\n\n"))
	out, err := executeCommand("settings", "wizard")

	require.NoError(t, err)
	s := services.settings.settings
	assert.Equal(t, domain.IndexBackendSQLite, s.Index.Backend)
	assert.Empty(t, s.Embedding.Provider)
	assert.Equal(t, domain.AIProviderOllama, s.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderOllama], s.LLM.Model)
	assert.Contains(t, out, "Skipped.")
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestSettingsLLMCmd_ValidationFails(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.settings.pingErr = domain.ErrLLMUnavailable

	rootCmd.SetIn(strings.NewReader("1\nllama3\n"))
	out, err := executeCommand("settings", "llm")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, out, "FAILED")
}

func TestSettingsCmds_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	for _, sub := range []string{"show", "wizard", "index", "embedding", "llm"} {
		_, err := executeCommand("settings", sub)
		assert.EqualError(t, err, "settings service not configured", sub)
	}
}
