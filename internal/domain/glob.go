package domain

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidatePattern reports a ConfigError naming the glob when it is malformed.
func ValidatePattern(field, pattern string) error {
	if pattern == "" {
		return &ConfigError{Field: field, Value: pattern, Msg: "empty glob"}
	}
	if !doublestar.ValidatePattern(pattern) {
		return &ConfigError{Field: field, Value: pattern, Msg: "malformed glob"}
	}
	return nil
}

// MatchGlob reports whether a slash-separated file id matches pattern.
// Malformed patterns never match; they are rejected at resolution time.
func MatchGlob(pattern, file string) bool {
	ok, err := doublestar.Match(pattern, file)
	return err == nil && ok
}

// Filter decides which files participate in coverage.
type Filter struct {
	include       []string
	exclude       []string
	extensions    map[string]struct{}
	allowExternal bool
}

// NewFilter compiles a filter from resolved options.
func NewFilter(opts ResolvedCoverageOptions) Filter {
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return Filter{
		include:       opts.Include,
		exclude:       opts.Exclude,
		extensions:    exts,
		allowExternal: opts.AllowExternal,
	}
}

// Matches reports whether a root-relative file id is covered.
func (f Filter) Matches(file string) bool {
	file = filepath.ToSlash(file)
	if IsExternal(file) && !f.allowExternal {
		return false
	}
	if len(f.extensions) > 0 {
		if _, ok := f.extensions[strings.ToLower(path.Ext(file))]; !ok {
			return false
		}
	}
	if len(f.include) > 0 && !matchAny(f.include, file) {
		return false
	}
	return !matchAny(f.exclude, file)
}

// IsExternal reports whether a root-relative file id escapes the root.
func IsExternal(file string) bool {
	file = filepath.ToSlash(file)
	return file == ".." || strings.HasPrefix(file, "../") || path.IsAbs(file) || filepath.IsAbs(file)
}

func matchAny(patterns []string, file string) bool {
	for _, p := range patterns {
		if MatchGlob(p, file) {
			return true
		}
	}
	return false
}
