package lcov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

func TestTracefileName(t *testing.T) {
	assert.Equal(t, "out.lcov", TracefileName(domain.ResolvedCoverageOptions{Variant: domain.LCOVOptions{Tracefile: "out.lcov"}}))
	assert.Equal(t, domain.DefaultTracefile, TracefileName(domain.ResolvedCoverageOptions{}))
}

func TestModule(t *testing.T) {
	p, err := Module{}.GetProvider()
	require.NoError(t, err)
	assert.Equal(t, Name, p.Name())

	_, ok := Module{}.WorkerHooks()
	assert.True(t, ok)
}
