package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreFiles are read from the root, in order.
var ignoreFiles = []string{".gitignore", ".coverkitignore"}

// defaultIgnore is always skipped during discovery.
var defaultIgnore = []string{
	".git",
	".hg",
	".svn",
	".idea",
	".vscode",
	"node_modules",
	".cache",
}

// IgnoreMatcher applies .gitignore-style patterns from the root.
type IgnoreMatcher struct {
	patterns *gitignore.GitIgnore
}

// NewIgnoreMatcher reads .gitignore and .coverkitignore under root.
func NewIgnoreMatcher(root string) (*IgnoreMatcher, error) {
	patterns := append([]string(nil), defaultIgnore...)
	for _, name := range ignoreFiles {
		lines, err := readIgnoreFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		patterns = append(patterns, lines...)
	}
	return &IgnoreMatcher{patterns: gitignore.CompileIgnoreLines(patterns...)}, nil
}

// ShouldIgnore reports whether a slash-separated root-relative path is ignored.
func (m *IgnoreMatcher) ShouldIgnore(path string) bool {
	if m == nil || m.patterns == nil {
		return false
	}
	return m.patterns.MatchesPath(path)
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path) // #nosec G304 - fixed names under the root
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}
