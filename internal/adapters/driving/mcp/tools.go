package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// ContextInput is the input schema for the partner_context tool.
type ContextInput struct {
	Key           string `json:"key" jsonschema:"partner name or session key"`
	Query         string `json:"query" jsonschema:"the question the context should answer"`
	MaxChunks     int    `json:"max_chunks,omitempty" jsonschema:"maximum number of chunks (default 10)"`
	UseEmbeddings bool   `json:"use_embeddings,omitempty" jsonschema:"break score ties with embedding similarity"`
}

// ChunkOutput is one selected chunk.
type ChunkOutput struct {
	Source   string `json:"source"`
	DocType  string `json:"doc_type"`
	Ordinal  int    `json:"ordinal"`
	Content  string `json:"content"`
	FileName string `json:"file_name,omitempty"`
}

// ContextOutput is the output schema for the partner_context tool.
type ContextOutput struct {
	Key      string        `json:"key"`
	Balanced bool          `json:"balanced"`
	Text     string        `json:"text"`
	Chunks   []ChunkOutput `json:"chunks"`
}

// AnalyseInput is the input schema for the analyse_partner tool.
type AnalyseInput struct {
	Key       string `json:"key" jsonschema:"partner name or session key"`
	Question  string `json:"question,omitempty" jsonschema:"question to ask; defaults to a payout discrepancy analysis"`
	MaxChunks int    `json:"max_chunks,omitempty" jsonschema:"maximum number of chunks (default 10)"`
}

// QueryAllInput is the input schema for the query_all tool.
type QueryAllInput struct {
	Question string `json:"question" jsonschema:"question to ask across every partner"`
	MaxDocs  int    `json:"max_docs,omitempty" jsonschema:"maximum number of chunks (default 15)"`
}

// AnalysisOutput is the output schema for the analysis tools.
type AnalysisOutput struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Model    string   `json:"model,omitempty"`
	Sources  []string `json:"sources"`
}

// SummaryInput is the input schema for the partner_summary tool.
type SummaryInput struct {
	Key string `json:"key" jsonschema:"partner name or session key"`
}

// TypeSummaryOutput describes one document type.
type TypeSummaryOutput struct {
	DocType       string   `json:"doc_type"`
	Chunks        int      `json:"chunks"`
	Files         []string `json:"files"`
	ContentLength int      `json:"content_length"`
}

// SummaryOutput is the output schema for the partner_summary tool.
type SummaryOutput struct {
	Key         string              `json:"key"`
	TotalChunks int                 `json:"total_chunks"`
	Types       []TypeSummaryOutput `json:"types"`
}

// IngestInput is the input schema for the ingest_text tool.
type IngestInput struct {
	Text       string `json:"text" jsonschema:"plain text of the document"`
	FileName   string `json:"file_name" jsonschema:"file name, used as the document ID and to infer its type"`
	DocType    string `json:"doc_type,omitempty" jsonschema:"contract, payout_report or other"`
	PartnerKey string `json:"partner_key,omitempty" jsonschema:"partner the document belongs to"`
	SessionKey string `json:"session_key,omitempty" jsonschema:"session key for ad-hoc uploads"`
}

// IngestOutput is the output schema for the ingest_text tool.
type IngestOutput struct {
	Source     string `json:"source"`
	SessionKey string `json:"session_key,omitempty"`
	Chunks     int    `json:"chunks"`
	Indexed    int    `json:"indexed"`
	Embedded   int    `json:"embedded"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "partner_context",
		Description: "Assemble the most relevant contract and payout report excerpts for a partner",
	}, s.handleContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyse_partner",
		Description: "Ask the configured LLM a question about one partner's documents",
	}, s.handleAnalyse)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_all",
		Description: "Ask a question across every indexed partner",
	}, s.handleQueryAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "partner_summary",
		Description: "Summarise which documents are indexed for a partner",
	}, s.handleSummary)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Index the text of a contract or payout report",
		}, s.handleIngest)
	}
}

func (s *Server) handleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	assembled, err := s.ports.Retrieval.Context(ctx, domain.ContextRequest{
		Key:           input.Key,
		Query:         input.Query,
		Budget:        domain.RetrievalBudget{MaxChunks: input.MaxChunks},
		UseEmbeddings: input.UseEmbeddings,
	})
	if err != nil {
		return nil, ContextOutput{}, err
	}

	output := ContextOutput{
		Key:      assembled.Key,
		Balanced: assembled.Balanced,
		Text:     assembled.Text,
		Chunks:   make([]ChunkOutput, len(assembled.Chunks)),
	}
	for i, c := range assembled.Chunks {
		output.Chunks[i] = ChunkOutput{
			Source:   c.SourceDocID,
			DocType:  c.DocType.String(),
			Ordinal:  c.Ordinal,
			Content:  c.Content,
			FileName: c.FileName,
		}
	}
	return nil, output, nil
}

func (s *Server) handleAnalyse(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyseInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	analysis, err := s.ports.Retrieval.Analyse(ctx, domain.ContextRequest{
		Key:    input.Key,
		Query:  input.Question,
		Budget: domain.RetrievalBudget{MaxChunks: input.MaxChunks},
	})
	if err != nil {
		return nil, AnalysisOutput{}, err
	}
	return nil, analysisOutput(analysis), nil
}

func (s *Server) handleQueryAll(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryAllInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	analysis, err := s.ports.Retrieval.QueryAll(ctx, input.Question, input.MaxDocs)
	if err != nil {
		return nil, AnalysisOutput{}, err
	}
	return nil, analysisOutput(analysis), nil
}

func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummaryInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	summary, err := s.ports.Retrieval.Summary(ctx, input.Key)
	if err != nil {
		return nil, SummaryOutput{}, err
	}

	output := SummaryOutput{Key: summary.Key, TotalChunks: summary.TotalChunks, Types: []TypeSummaryOutput{}}
	for _, t := range domain.AllDocTypes() {
		ts, ok := summary.DocumentTypes[t]
		if !ok {
			continue
		}
		output.Types = append(output.Types, TypeSummaryOutput{
			DocType:       t.String(),
			Chunks:        ts.Count,
			Files:         ts.Files,
			ContentLength: ts.TotalContentLength,
		})
	}
	return nil, output, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	req := domain.IngestRequest{
		FileName:   input.FileName,
		Text:       input.Text,
		PartnerKey: input.PartnerKey,
		SessionKey: input.SessionKey,
	}
	if input.DocType != "" {
		req.DocType = domain.ParseDocType(input.DocType)
	}

	res, err := s.ports.Ingest.IngestText(ctx, req)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{
		Source:     res.Source,
		SessionKey: res.SessionKey,
		Chunks:     res.TotalChunks,
		Indexed:    res.Indexed,
		Embedded:   res.Embedded,
	}, nil
}

func analysisOutput(a *domain.Analysis) AnalysisOutput {
	seen := make(map[string]bool)
	sources := []string{}
	for _, c := range a.Context.Chunks {
		if !seen[c.SourceDocID] {
			seen[c.SourceDocID] = true
			sources = append(sources, c.SourceDocID)
		}
	}
	return AnalysisOutput{
		Question: a.Question,
		Answer:   a.Answer,
		Model:    a.Model,
		Sources:  sources,
	}
}
