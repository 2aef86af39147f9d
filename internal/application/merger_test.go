package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

func TestReportMergerEmpty(t *testing.T) {
	_, err := ReportMerger{Provider: newFakeProvider(true)}.Merge(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestReportMergerIdentity(t *testing.T) {
	x := fakeResults{files: map[string]domain.Metric{"a.go": {Covered: 1, Total: 2}}}

	// identity holds even for providers without the merge capability
	got, err := ReportMerger{Provider: newFakeProvider(false)}.Merge(context.Background(), []domain.CoverageResults{x})
	require.NoError(t, err)
	assert.Equal(t, x, got)
}

func TestReportMergerRequiresCapability(t *testing.T) {
	x := fakeResults{files: map[string]domain.Metric{}}
	_, err := ReportMerger{Provider: newFakeProvider(false)}.Merge(context.Background(), []domain.CoverageResults{x, x})
	require.Error(t, err)
	assert.True(t, domain.IsCapabilityError(err))
}

func TestReportMergerDelegates(t *testing.T) {
	a := fakeResults{files: map[string]domain.Metric{"a.go": {Covered: 1, Total: 2}}}
	b := fakeResults{files: map[string]domain.Metric{"a.go": {Covered: 1, Total: 2}, "b.go": {Covered: 3, Total: 3}}}

	got, err := ReportMerger{Provider: newFakeProvider(true)}.Merge(context.Background(), []domain.CoverageResults{a, b})
	require.NoError(t, err)
	summary := got.Summary()
	assert.Equal(t, domain.Metric{Covered: 2, Total: 4}, summary.Files["a.go"].Lines)
	assert.Equal(t, domain.Metric{Covered: 5, Total: 7}, summary.Global.Lines)
}

func TestBaseProviderDeclinesCapabilities(t *testing.T) {
	base := BaseProvider{ProviderName: "plain"}
	assert.False(t, base.SupportsMerge())
	assert.False(t, base.SupportsTransform())

	_, err := base.ReadResults(nil)
	assert.True(t, domain.IsCapabilityError(err))
	_, err = base.WriteResults(nil)
	assert.True(t, domain.IsCapabilityError(err))
	_, _, err = base.OnFileTransform([]byte("x"), "a.go")
	assert.True(t, domain.IsCapabilityError(err))
	assert.Contains(t, err.Error(), "plain")
}
