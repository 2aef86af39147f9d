package paths

import (
	"path/filepath"
	"testing"
)

func TestGoModuleNormalizer(t *testing.T) {
	root := filepath.FromSlash("/work/repo")
	n := NewGoModuleNormalizer(root, "example.com/repo")

	cases := map[string]string{
		"example.com/repo/internal/a.go":       "internal/a.go",
		"example.com/repo/main.go":             "main.go",
		"example.com/other/x.go":               "../example.com/other/x.go",
		filepath.FromSlash("/work/repo/b/c.go"): "b/c.go",
	}
	for in, want := range cases {
		if got := n.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRootNormalizer(t *testing.T) {
	n := RootNormalizer{Root: filepath.FromSlash("/work/repo")}

	cases := map[string]string{
		"src/a.ts":                          "src/a.ts",
		"./src/b.ts":                        "src/b.ts",
		filepath.FromSlash("/work/repo/lib/c.js"): "lib/c.js",
		filepath.FromSlash("/work/shared/d.js"):   "../shared/d.js",
	}
	for in, want := range cases {
		if got := n.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
