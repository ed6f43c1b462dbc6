package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents, such as statements exported from a
// partner portal.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the format name.
func (n *Normaliser) Name() string {
	return "html"
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".html", ".htm"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser, higher than plaintext
}

// Normalise strips tags and returns the readable text, one block per line.
func (n *Normaliser) Normalise(_ context.Context, content []byte) (string, error) {
	return stripHTML(string(content)), nil
}

var (
	// dropped removes elements whose content is never readable text.
	dropped = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}

	lineBreaks = regexp.MustCompile(
		`(?i)</?(p|div|h[1-6]|li|tr|blockquote|pre|table|thead|tbody|section|article)[^>]*>|<(br|hr)\s*/?>`)
	cellEnds   = regexp.MustCompile(`(?i)</t[dh]>`)
	anyTag     = regexp.MustCompile(`<[^>]+>`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
	trailPipes = regexp.MustCompile(`\s*\|\s*$`)
)

// stripHTML removes markup and returns non-empty lines of text.
// Table cells are separated by " | " so payout rows stay on one line.
func stripHTML(content string) string {
	for _, re := range dropped {
		content = re.ReplaceAllString(content, "")
	}
	content = cellEnds.ReplaceAllString(content, " | ")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = strings.ReplaceAll(content, "\u00a0", " ")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = spaceRuns.ReplaceAllString(line, " ")
		line = strings.TrimSpace(trailPipes.ReplaceAllString(line, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
