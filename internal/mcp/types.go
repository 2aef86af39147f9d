// Package mcp exposes coverage runs to MCP clients over stdio.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// Service defines the application operations needed by MCP.
type Service interface {
	Run(ctx context.Context, req application.Request) (application.RunResult, error)
	Merge(ctx context.Context, req application.Request, inputs []string) (application.RunResult, error)
	Resolve(ctx context.Context, req application.Request) (domain.ResolvedCoverageOptions, error)
	Providers() []string
}

// Config holds MCP server configuration.
type Config struct {
	Dir        string // Project directory (default: ".")
	ConfigPath string // Path to .coverkit.yaml relative to Dir
	Workers    int
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{Dir: ".", ConfigPath: application.DefaultConfigFile}
}

// RunInput defines the input parameters for the coverage_run tool.
type RunInput struct {
	Files     []string `json:"files,omitempty" jsonschema:"Test files or packages to run; empty runs every discovered test"`
	Provider  string   `json:"provider,omitempty" jsonschema:"Coverage provider: gocover, lcov or custom"`
	Runner    string   `json:"runner,omitempty" jsonschema:"Test runner name instead of auto-detection"`
	Reporters []string `json:"reporters,omitempty" jsonschema:"Reporter names to write"`
	Workers   int      `json:"workers,omitempty" jsonschema:"Number of isolated workers"`
	BlobDir   string   `json:"blobDir,omitempty" jsonschema:"Directory to write a mergeable coverage blob into"`
}

// MergeInput defines the input parameters for the coverage_merge tool.
type MergeInput struct {
	Inputs    []string `json:"inputs" jsonschema:"Blob files or directories containing blobs"`
	Reporters []string `json:"reporters,omitempty" jsonschema:"Reporter names to write"`
}

// ToolOutput is the structured result of every coverage tool.
type ToolOutput struct {
	Passed     bool                     `json:"passed"`
	Summary    string                   `json:"summary"`
	Global     domain.Percentages       `json:"global,omitempty"`
	Violations []domain.Violation       `json:"violations,omitempty"`
	Updates    []domain.ThresholdUpdate `json:"updates,omitempty"`
	Partial    []string                 `json:"partial,omitempty"`
	Failed     []string                 `json:"failed,omitempty"`
	BlobPath   string                   `json:"blobPath,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// ProvidersOutput lists the registered providers.
type ProvidersOutput struct {
	Providers []string `json:"providers"`
}
