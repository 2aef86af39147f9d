package application

import (
	"context"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// ReportMerger combines result sets from independent invocations. It only
// checks preconditions; the union itself belongs to the provider.
type ReportMerger struct {
	Provider Provider
}

// Merge returns the single input unchanged, or the provider's merge of all
// inputs.
func (m ReportMerger) Merge(ctx context.Context, results []domain.CoverageResults) (domain.CoverageResults, error) {
	switch len(results) {
	case 0:
		return nil, domain.ErrNoResults
	case 1:
		return results[0], nil
	}
	if m.Provider == nil || !m.Provider.SupportsMerge() {
		return nil, &domain.CapabilityError{Provider: providerName(m.Provider), Capability: CapabilityMerge}
	}
	return m.Provider.MergeReports(ctx, results)
}

func providerName(p Provider) string {
	if p == nil {
		return "<none>"
	}
	return p.Name()
}
