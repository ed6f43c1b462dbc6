// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// ChunkList displays the chunks of an assembled context in a navigable list.
type ChunkList struct {
	chunks   []domain.Chunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewChunkList creates a new chunk list component.
func NewChunkList(s *styles.Styles) *ChunkList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ChunkList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the chunk list.
func (l *ChunkList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *ChunkList) Update(msg tea.Msg) (*ChunkList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the chunk list.
func (l *ChunkList) View() string {
	if len(l.chunks) == 0 {
		return l.styles.Muted.Render("No chunks")
	}

	lines := make([]string, 0, len(l.chunks)*2+2)
	header := l.styles.Subtitle.Render(fmt.Sprintf("Chunks (%d)", len(l.chunks)))
	lines = append(lines, header, "")

	// Each chunk takes two lines plus a spacer.
	visibleCount := max((l.height-4)/3, 1)

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(l.chunks))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderChunk(i, &l.chunks[i]))
	}

	return strings.Join(lines, "\n")
}

func (l *ChunkList) renderChunk(index int, c *domain.Chunk) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := fmt.Sprintf("%s%s #%d", indicator, c.SourceDocID, c.Ordinal)
	tag := "[" + c.DocType.Label() + "]"

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(title + "  " + tag)
	} else {
		titleLine = l.styles.Normal.Render(title+"  ") + l.styles.DocType(c.DocType).Render(tag)
	}

	preview := truncate(c.Content, max(l.width-6, 20))
	return titleLine + "\n" + l.styles.Muted.Render("    "+preview)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetChunks replaces the listed chunks.
func (l *ChunkList) SetChunks(chunks []domain.Chunk) {
	l.chunks = chunks
	l.selected = 0
}

// Chunks returns the listed chunks.
func (l *ChunkList) Chunks() []domain.Chunk {
	return l.chunks
}

// Selected returns the index of the selected chunk.
func (l *ChunkList) Selected() int {
	return l.selected
}

// SelectedChunk returns the selected chunk, or nil if the list is empty.
func (l *ChunkList) SelectedChunk() *domain.Chunk {
	if l.selected < 0 || l.selected >= len(l.chunks) {
		return nil
	}
	return &l.chunks[l.selected]
}

// MoveUp moves selection up.
func (l *ChunkList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ChunkList) MoveDown() {
	if l.selected < len(l.chunks)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ChunkList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of chunks.
func (l *ChunkList) Count() int {
	return len(l.chunks)
}
