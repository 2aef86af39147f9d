package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// configView is the JSON shape of the resolved options.
type configView struct {
	Provider              domain.ProviderKind           `json:"provider"`
	Enabled               bool                          `json:"enabled"`
	Clean                 bool                          `json:"clean"`
	CleanOnRerun          bool                          `json:"cleanOnRerun"`
	ReportsDirectory      string                        `json:"reportsDirectory"`
	Root                  string                        `json:"root"`
	Include               []string                      `json:"include"`
	Exclude               []string                      `json:"exclude"`
	Extensions            []string                      `json:"extensions"`
	Reporters             []string                      `json:"reporters"`
	ReportOnFailure       bool                          `json:"reportOnFailure"`
	AllowExternal         bool                          `json:"allowExternal"`
	All                   bool                          `json:"all"`
	SkipFull              bool                          `json:"skipFull"`
	ProcessingConcurrency int                           `json:"processingConcurrency"`
	Thresholds            map[string]domain.Percentages `json:"thresholds,omitempty"`
	Watermarks            domain.Watermarks             `json:"watermarks"`
	Variant               domain.ProviderVariant        `json:"variant"`
	Warnings              []string                      `json:"warnings,omitempty"`
}

// handleConfigResource returns the resolved configuration.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	resolved, err := s.svc.Resolve(ctx, application.Request{Dir: s.config.Dir, ConfigPath: s.config.ConfigPath})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}
	return jsonResource(req.Params.URI, newConfigView(resolved))
}

// handleProvidersResource returns the registered provider names.
func (s *Server) handleProvidersResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, ProvidersOutput{Providers: s.svc.Providers()})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func newConfigView(o domain.ResolvedCoverageOptions) configView {
	view := configView{
		Provider:              o.Provider,
		Enabled:               o.Enabled,
		Clean:                 o.Clean,
		CleanOnRerun:          o.CleanOnRerun,
		ReportsDirectory:      o.ReportsDirectory,
		Root:                  o.Root,
		Include:               o.Include,
		Exclude:               o.Exclude,
		Extensions:            o.Extensions,
		ReportOnFailure:       o.ReportOnFailure,
		AllowExternal:         o.AllowExternal,
		All:                   o.All,
		SkipFull:              o.SkipFull,
		ProcessingConcurrency: o.ProcessingConcurrency,
		Watermarks:            o.Watermarks,
		Variant:               o.Variant,
		Warnings:              o.Warnings,
	}
	for _, r := range o.Reporter {
		view.Reporters = append(view.Reporters, r.Name)
	}
	if th := thresholdView(o.Thresholds.Global); th != nil {
		view.Thresholds = map[string]domain.Percentages{domain.ScopeGlobal: th}
	}
	for pattern, mt := range o.Thresholds.Globs {
		if th := thresholdView(mt); th != nil {
			if view.Thresholds == nil {
				view.Thresholds = map[string]domain.Percentages{}
			}
			view.Thresholds[pattern] = th
		}
	}
	return view
}

func thresholdView(mt domain.MetricThresholds) domain.Percentages {
	mt = mt.Expand()
	out := domain.Percentages{}
	for _, name := range domain.Metrics {
		if v := mt.Get(name); v != nil {
			out[name] = *v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
