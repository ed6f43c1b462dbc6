package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driven/llm/prompt"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// errBadPlaceholders marks a template whose %s count does not match its default.
var errBadPlaceholders = errors.New("placeholder count mismatch")

// PromptStore loads analysis prompts from user-editable files on disk,
// falling back to the built-in templates.
//
// Files are only created on first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts are written out on first use and returned whenever a
// file is missing or unusable.
var defaultPrompts = map[string]string{
	driven.PromptAnalysis: prompt.DefaultAnalysis,
	driven.PromptSystem:   prompt.DefaultSystem,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.partnerdocs/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".partnerdocs", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name. A customised file
// whose placeholders do not match the built-in template is ignored.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if p, ok := defaultPrompts[name]; ok {
			return p, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if p, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	p, err := s.loadFromFile(name)
	if err != nil {
		def, ok := defaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		if errors.Is(err, errBadPlaceholders) {
			logger.Warn("Ignoring prompt %s: %v", name, err)
		}
		return def, nil
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		p = cached
	} else {
		s.cache[name] = p
	}
	s.mu.Unlock()

	return p, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Path returns the file backing the named prompt.
func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

// initialise creates the prompt directory, default files and README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := s.Path(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk and checks its placeholders.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}
	p := strings.TrimSpace(string(data))
	if p == "" {
		return "", fmt.Errorf("prompt %q is empty", name)
	}
	if def, ok := defaultPrompts[name]; ok {
		if want, got := strings.Count(def, "%s"), strings.Count(p, "%s"); want != got {
			return "", fmt.Errorf("%w: want %d %%s, got %d", errBadPlaceholders, want, got)
		}
	}
	return p, nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# partnerdocs prompts

Templates used when analysing partner contracts and payout reports.

## Files

- ` + "`system.txt`" + ` - System message sent with every analysis
- ` + "`analysis.txt`" + ` - Frames the retrieved documents and the question

## Customisation

Edit either file to change how answers are written. Changes apply to the
next command.

` + "`analysis.txt`" + ` must keep exactly two ` + "`%s`" + ` placeholders: the
document context first, then the question. A file with the wrong number of
placeholders is ignored and the built-in template is used instead.
`
	return os.WriteFile(path, []byte(content), 0600)
}
