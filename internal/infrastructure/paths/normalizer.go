// Package paths maps the file names found in coverage payloads onto
// slash-separated, root-relative file ids.
package paths

import (
	"path"
	"path/filepath"
	"strings"
)

// Normalizer converts a payload file name into a root-relative file id.
type Normalizer interface {
	Normalize(file string) string
}

// RootNormalizer resolves plain file system paths against a root directory.
// Relative paths are taken relative to the root.
type RootNormalizer struct {
	Root string
}

// Normalize returns the slash-separated path of file relative to the root.
// Files outside the root keep their leading "../" segments.
func (n RootNormalizer) Normalize(file string) string {
	clean := filepath.Clean(filepath.FromSlash(file))
	if !filepath.IsAbs(clean) {
		return filepath.ToSlash(clean)
	}
	return filepath.ToSlash(ModuleRelativePath(clean, n.Root))
}

// GoModuleNormalizer maps Go import-path file names onto the module root.
type GoModuleNormalizer struct {
	ModuleRoot string
	ModulePath string
}

// NewGoModuleNormalizer creates a new GoModuleNormalizer.
func NewGoModuleNormalizer(moduleRoot, modulePath string) *GoModuleNormalizer {
	return &GoModuleNormalizer{
		ModuleRoot: moduleRoot,
		ModulePath: modulePath,
	}
}

// Normalize converts a cover profile file name to a root-relative id.
// Packages outside the main module are reported under "../" so that the
// exclusion filter treats them as external.
func (n *GoModuleNormalizer) Normalize(file string) string {
	slash := filepath.ToSlash(file)
	if filepath.IsAbs(file) {
		return filepath.ToSlash(ModuleRelativePath(filepath.Clean(file), n.ModuleRoot))
	}
	if n.ModulePath != "" {
		if slash == n.ModulePath {
			return "."
		}
		if rel, ok := strings.CutPrefix(slash, n.ModulePath+"/"); ok {
			return path.Clean(rel)
		}
		return "../" + path.Clean(slash)
	}
	return path.Clean(slash)
}

// ModuleRelativePath returns the path relative to the module root.
func ModuleRelativePath(p, moduleRoot string) string {
	if moduleRoot == "" {
		return p
	}
	root, err := filepath.Abs(moduleRoot)
	if err != nil {
		root = moduleRoot
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return rel
}
