package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// queryAllFallback is how many chunks QueryAll uses when nothing scores.
const queryAllFallback = 5

// DefaultQuestion returns the discrepancy question asked when none is given.
func DefaultQuestion(key string) string {
	return fmt.Sprintf("Explain the discrepancies in the payout report for %s based on the provided contract. "+
		"Identify the service fees and penalties that cause differences in the payout amounts.", key)
}

// RetrievalService assembles partner context and forwards it to the LLM.
type RetrievalService struct {
	cache     *PartnerDocumentCache
	index     driven.ChunkIndex
	assembler *ContextAssembler
	embedder  *EmbeddingCoordinator
	llm       driven.LLMService
	now       func() time.Time

	// scanLimit caps the chunks QueryAll scores. Zero scans the whole index.
	scanLimit int
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithScanLimit caps how many indexed chunks QueryAll reads and scores.
// Values below one scan the whole index.
func WithScanLimit(n int) RetrievalOption {
	return func(s *RetrievalService) {
		s.scanLimit = max(n, 0)
	}
}

// NewRetrievalService creates a new retrieval service.
// The embedder and llm parameters are optional (can be nil).
func NewRetrievalService(
	cache *PartnerDocumentCache,
	index driven.ChunkIndex,
	assembler *ContextAssembler,
	embedder *EmbeddingCoordinator,
	llm driven.LLMService,
	opts ...RetrievalOption,
) *RetrievalService {
	if assembler == nil {
		assembler = NewContextAssembler(nil)
	}
	s := &RetrievalService{
		cache:     cache,
		index:     index,
		assembler: assembler,
		embedder:  embedder,
		llm:       llm,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context loads the key's documents and assembles a bounded context.
func (s *RetrievalService) Context(ctx context.Context, req domain.ContextRequest) (*domain.AssembledContext, error) {
	docs, err := s.cache.Load(ctx, req.Key)
	if err != nil {
		return nil, err
	}

	var opts []AssembleOption
	if req.UseEmbeddings && s.embedder != nil && docs.Total() > 0 {
		vec, err := s.embedder.EmbedQuery(ctx, req.Query)
		switch {
		case err == nil:
			opts = append(opts, WithQueryVector(vec))
		case errors.Is(err, domain.ErrCancelled):
			return nil, err
		default:
			// Similarity is only a tie-break; rank on token overlap alone.
			logger.Warn("Query embedding failed, ranking without it: %v", err)
		}
	}

	return s.assembler.Assemble(ctx, docs, req.Query, req.Budget, opts...)
}

// Analyse assembles context for the key and asks the LLM about it.
func (s *RetrievalService) Analyse(ctx context.Context, req domain.ContextRequest) (*domain.Analysis, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(req.Query) == "" {
		req.Query = DefaultQuestion(req.Key)
	}

	assembled, err := s.Context(ctx, req)
	if err != nil {
		return nil, err
	}

	logger.Section("Analyse")
	logger.Debug("Asking %s about %q with %d chunks", s.llm.ModelName(), req.Key, len(assembled.Chunks))

	answer, err := s.llm.Analyse(ctx, driven.AnalysisRequest{
		Context:  assembled.Text,
		Question: req.Query,
	})
	if err != nil {
		return nil, fmt.Errorf("analyse %s: %w", req.Key, err)
	}

	return &domain.Analysis{
		Key:      req.Key,
		Question: req.Query,
		Answer:   CleanResponse(answer),
		Context:  *assembled,
		Model:    s.llm.ModelName(),
	}, nil
}

// QueryAll asks question across the whole index. Every indexed chunk (or
// the first scanLimit, when set) is ranked by token overlap, and the best
// maxDocs with a positive score are kept. If none score, the first few
// chunks are used instead.
func (s *RetrievalService) QueryAll(ctx context.Context, question string, maxDocs int) (*domain.Analysis, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if maxDocs <= 0 {
		maxDocs = domain.DefaultQueryAllMaxDocs
	}

	pool, err := s.index.Query(ctx, domain.ChunkFilter{Limit: s.scanLimit})
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoDocuments
	}

	ranked, err := rank(ctx, pool, Tokenize(question), nil)
	if err != nil {
		return nil, err
	}
	var selected []domain.Chunk
	for _, sc := range ranked {
		if sc.Score > 0 && len(selected) < maxDocs {
			selected = append(selected, sc.Chunk)
		}
	}
	if len(selected) == 0 {
		selected = append(selected, pool[:min(queryAllFallback, len(pool))]...)
	}

	text := FormatPartnerContext(selected)
	answer, err := s.llm.Analyse(ctx, driven.AnalysisRequest{Context: text, Question: question})
	if err != nil {
		return nil, fmt.Errorf("analyse index: %w", err)
	}
	logger.Info("Answered cross-partner question from %d of %d chunks", len(selected), len(pool))

	return &domain.Analysis{
		Question: question,
		Answer:   CleanResponse(answer),
		Context:  domain.AssembledContext{Chunks: selected, Text: text},
		Model:    s.llm.ModelName(),
	}, nil
}

// Summary describes the documents indexed for a partner or session.
// Types with no chunks are omitted.
func (s *RetrievalService) Summary(ctx context.Context, key string) (*domain.PartnerSummary, error) {
	docs, err := s.cache.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	summary := &domain.PartnerSummary{
		Key:           key,
		TotalChunks:   docs.Total(),
		DocumentTypes: make(map[domain.DocType]domain.DocTypeSummary),
		GeneratedAt:   s.now().UTC(),
	}
	for t, chunks := range docs.ByType {
		if len(chunks) == 0 {
			continue
		}
		files := make(map[string]struct{})
		length := 0
		for _, c := range chunks {
			name := c.FileName
			if name == "" {
				name = c.SourceDocID
			}
			files[name] = struct{}{}
			length += utf8.RuneCountInString(c.Content)
		}
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)

		summary.DocumentTypes[t] = domain.DocTypeSummary{
			Count:              len(chunks),
			Files:              names,
			TotalContentLength: length,
		}
	}
	return summary, nil
}

// Stats returns aggregate counts across the index.
func (s *RetrievalService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	return stats, nil
}

// FormatPartnerContext renders chunks from several partners, naming the
// partner (or session) each block belongs to.
func FormatPartnerContext(chunks []domain.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		owner := c.PartnerKey
		if owner == "" {
			owner = c.SessionKey
		}
		if owner == "" {
			owner = "unknown"
		}
		blocks[i] = fmt.Sprintf("DOCUMENT %d (%s) - Partner: %s:\nContent: %s\n---",
			i+1, c.DocType.Label(), owner, c.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// Pre-compiled regular expressions for response cleanup.
var (
	splitThousands = regexp.MustCompile(`(\d+)\s*\n\s*,\s*\n\s*(\d+)`)
	splitDecimals  = regexp.MustCompile(`(\d+)\s*\n\s*\.\s*\n\s*(\d+)`)
	blankRuns      = regexp.MustCompile(`\n\s*\n\s*\n`)
	spaceRuns      = regexp.MustCompile(` +`)

	// Common words spelled one letter per line. Only these are rejoined;
	// a general rule would merge legitimate one-letter words.
	splitWords = []struct {
		re   *regexp.Regexp
		word string
	}{
		{letterPerLine("with"), "with"},
		{letterPerLine("from"), "from"},
		{letterPerLine("there"), "there"},
		{letterPerLine("that"), "that"},
		{letterPerLine("this"), "this"},
	}
)

// letterPerLine matches word with a newline between each letter.
func letterPerLine(word string) *regexp.Regexp {
	letters := strings.Split(word, "")
	return regexp.MustCompile(`(?i)\b` + strings.Join(letters, `\s*\n\s*`) + `\b`)
}

// CleanResponse repairs token-per-line artifacts some models emit when
// streaming: stray single characters are folded back into the previous line,
// split numbers such as "2\n,\n925" are rejoined, and a few common words
// spelled one letter per line are restored.
func CleanResponse(text string) string {
	// Before line folding, which would glue the letters onto the previous line.
	for _, w := range splitWords {
		text = w.re.ReplaceAllStringFunc(text, func(m string) string {
			if m[0] >= 'A' && m[0] <= 'Z' {
				return strings.ToUpper(w.word[:1]) + w.word[1:]
			}
			return w.word
		})
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for i, line := range lines {
		line = strings.TrimSpace(line)

		if isSingleAlnum(line) {
			if n := len(kept); n > 0 && !endsClause(kept[n-1]) {
				kept[n-1] += line
			}
			continue
		}

		// Blank lines between two single characters are part of the artifact.
		if line == "" && i > 0 && i < len(lines)-1 &&
			utf8.RuneCountInString(strings.TrimSpace(lines[i-1])) == 1 &&
			utf8.RuneCountInString(strings.TrimSpace(lines[i+1])) == 1 {
			continue
		}

		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	out = splitThousands.ReplaceAllString(out, "$1,$2")
	out = splitDecimals.ReplaceAllString(out, "$1.$2")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	out = spaceRuns.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

func isSingleAlnum(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	c := s[0]
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func endsClause(s string) bool {
	return s != "" && strings.ContainsRune(".!?:", rune(s[len(s)-1]))
}
