package tracefile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

const lcovSample = `TN:
SF:src/a.js
FN:1,run
FN:7,stop
FNDA:3,run
FNDA:0,stop
FNF:2
FNH:1
DA:1,3
DA:2,3
DA:7,0
LF:3
LH:2
BRDA:2,0,0,3
BRDA:2,0,1,-
BRF:2
BRH:1
end_of_record
SF:src/b.js
DA:1,1
`

func TestParseLCOV(t *testing.T) {
	files, err := ParseLCOV(strings.NewReader(lcovSample))
	require.NoError(t, err)
	require.Len(t, files, 2)

	a := files[0]
	assert.Equal(t, "src/a.js", a.Path)
	s := a.Summary()
	assert.Equal(t, domain.Metric{Covered: 2, Total: 3}, s.Lines)
	assert.Equal(t, s.Lines, s.Statements)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 2}, s.Functions)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 2}, s.Branches)
	assert.Equal(t, 7, a.Functions["stop"].Line)

	// the last record has no end_of_record
	assert.Equal(t, "src/b.js", files[1].Path)
	assert.Equal(t, int64(1), files[1].Lines[1])
}

func TestParseLCOVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad DA", "SF:a.js\nDA:x,1\n"},
		{"short DA", "SF:a.js\nDA:1\n"},
		{"bad hits", "SF:a.js\nDA:1,many\n"},
		{"bad BRDA", "SF:a.js\nBRDA:1,0,1\n"},
		{"bad FN", "SF:a.js\nFN:main\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLCOV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

const coberturaSample = `<?xml version="1.0" ?>
<coverage line-rate="0.5" version="1.9">
  <sources><source>/app</source></sources>
  <packages>
    <package name="app">
      <classes>
        <class name="Service" filename="app/service.py">
          <methods>
            <method name="handle">
              <lines>
                <line number="3" hits="2"/>
              </lines>
            </method>
          </methods>
          <lines>
            <line number="3" hits="2"/>
            <line number="4" hits="2" branch="true" condition-coverage="50% (1/2)"/>
            <line number="6" hits="0"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

func TestParseCobertura(t *testing.T) {
	files, err := ParseCobertura(strings.NewReader(coberturaSample))
	require.NoError(t, err)
	require.Len(t, files, 1)

	s := files[0].Summary()
	assert.Equal(t, "app/service.py", files[0].Path)
	assert.Equal(t, domain.Metric{Covered: 2, Total: 3}, s.Lines)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 1}, s.Functions)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 2}, s.Branches)
	assert.Contains(t, files[0].Functions, "Service.handle")
}

func TestDetectAndParse(t *testing.T) {
	assert.Equal(t, FormatLCOV, Detect([]byte(lcovSample)))
	assert.Equal(t, FormatCobertura, Detect([]byte(coberturaSample)))
	assert.Equal(t, FormatGo, Detect([]byte("mode: atomic\nx.go:1.1,2.2 1 1\n")))
	assert.Equal(t, FormatUnknown, Detect([]byte("hello")))

	files, err := Parse([]byte(coberturaSample))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = Parse([]byte("mode: set\n"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseCondition(t *testing.T) {
	c, total, ok := parseCondition("75% (3/4)")
	assert.True(t, ok)
	assert.Equal(t, 3, c)
	assert.Equal(t, 4, total)

	_, _, ok = parseCondition("n/a")
	assert.False(t, ok)
}
