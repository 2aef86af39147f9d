package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

func sample(path string, hits int64) *FileCoverage {
	fc := NewFileCoverage(path)
	fc.AddStatement("1.1,3.2", 2, hits)
	fc.AddStatement("5.1,6.2", 1, 0)
	fc.AddLine(1, hits)
	fc.AddLine(5, 0)
	fc.AddFunction("Run", 1, hits)
	fc.AddBranch(5, 0, 0, hits)
	fc.AddBranch(5, 0, 1, 0)
	return fc
}

func TestFileCoverageSummary(t *testing.T) {
	s := sample("a.go", 3).Summary()
	assert.Equal(t, domain.Metric{Covered: 2, Total: 3}, s.Statements)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 2}, s.Lines)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 1}, s.Functions)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 2}, s.Branches)

	zero := sample("a.go", 0).Summary()
	assert.Equal(t, 0, zero.Lines.Covered)
}

func TestMapMergeIsOrderIndependent(t *testing.T) {
	a := sample("a.go", 1)
	b := sample("a.go", 0)
	b.AddLine(9, 4)
	c := sample("b.go", 2)

	first := NewMap()
	for _, fc := range []*FileCoverage{a, b, c} {
		first.Add(fc)
	}
	second := NewMap()
	for _, fc := range []*FileCoverage{c, b, a} {
		second.Add(fc)
	}

	assert.Equal(t, first.Summary(), second.Summary())
	got, ok := first.Get("a.go")
	require.True(t, ok)
	assert.Equal(t, int64(4), got.Lines[9])
	assert.Equal(t, int64(1), got.Lines[1])
}

func TestMapAddCopiesEntries(t *testing.T) {
	fc := sample("a.go", 1)
	m := NewMap()
	m.Add(fc)
	fc.AddLine(1, 10)

	got, _ := m.Get("a.go")
	assert.Equal(t, int64(1), got.Lines[1])
}

func TestCodecRoundTrip(t *testing.T) {
	m := NewMap()
	m.Add(sample("b.go", 1))
	m.Add(sample("a.go", 0))

	data, err := Encode("gocover", m)
	require.NoError(t, err)
	again, err := Encode("gocover", m)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding must be deterministic")

	decoded, err := Decode("gocover", data)
	require.NoError(t, err)
	assert.Equal(t, m.Summary(), decoded.Summary())
	assert.Equal(t, []string{"a.go", "b.go"}, decoded.Paths())
}

func TestDecodeRejects(t *testing.T) {
	data, err := Encode("lcov", NewMap())
	require.NoError(t, err)

	_, err = Decode("gocover", data)
	assert.ErrorIs(t, err, ErrProviderMismatch)

	_, err = Decode("gocover", []byte(`{"version":99,"provider":"gocover"}`))
	assert.ErrorContains(t, err, "unsupported")

	_, err = Decode("gocover", []byte(`not json`))
	assert.Error(t, err)
}
