package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// handleRun implements the coverage_run tool.
func (s *Server) handleRun(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	req := s.request(input.Provider, input.Reporters)
	req.Files = input.Files
	req.Runner = input.Runner
	req.BlobDir = input.BlobDir
	if input.Workers > 0 {
		req.Workers = input.Workers
	}

	result, err := s.svc.Run(ctx, req)
	return nil, toolOutput(result, err), nil
}

// handleMerge implements the coverage_merge tool.
func (s *Server) handleMerge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MergeInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	result, err := s.svc.Merge(ctx, s.request("", input.Reporters), input.Inputs)
	return nil, toolOutput(result, err), nil
}

func (s *Server) request(provider string, reporters []string) application.Request {
	enabled := true
	req := application.Request{
		Dir:        s.config.Dir,
		ConfigPath: s.config.ConfigPath,
		Workers:    s.config.Workers,
		Overrides:  domain.CoverageOptions{Enabled: &enabled},
	}
	if provider != "" {
		req.Overrides.Provider = &provider
	}
	for _, name := range reporters {
		req.Overrides.Reporter = append(req.Overrides.Reporter, domain.RawReporter{Name: name})
	}
	return req
}

func toolOutput(result application.RunResult, err error) ToolOutput {
	output := ToolOutput{
		Passed:     err == nil && result.Passed(),
		Violations: result.Evaluation.Violations,
		Updates:    result.Evaluation.Updates,
		Partial:    result.Partial,
		Failed:     result.Failed,
		BlobPath:   result.BlobPath,
	}
	if len(result.Summary.Files) > 0 {
		output.Global = result.Summary.Global.Percentages()
	}
	if err != nil {
		output.Error = err.Error()
	}
	output.Summary = summarize(result, err)
	return output
}

func summarize(result application.RunResult, err error) string {
	var b strings.Builder
	switch {
	case err != nil && len(result.Failed) > 0:
		fmt.Fprintf(&b, "FAIL: %d test file(s) failed", len(result.Failed))
	case err != nil:
		fmt.Fprintf(&b, "ERROR: %v", err)
		return b.String()
	case result.Evaluation.Failed():
		fmt.Fprintf(&b, "FAIL: %d threshold violation(s)", len(result.Evaluation.Violations))
	default:
		b.WriteString("PASS")
	}
	if len(result.Summary.Files) > 0 {
		g := result.Summary.Global
		fmt.Fprintf(&b, " - statements %.2f%%, branches %.2f%%, functions %.2f%%, lines %.2f%% across %d file(s)",
			g.Statements.Pct(), g.Branches.Pct(), g.Functions.Pct(), g.Lines.Pct(), len(result.Summary.Files))
	}
	if len(result.Partial) > 0 {
		fmt.Fprintf(&b, "; coverage missing for %d test file(s)", len(result.Partial))
	}
	return b.String()
}
