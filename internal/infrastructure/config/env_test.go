package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

func TestApplyEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("COVERKIT_PROVIDER=lcov\nCOVERKIT_ENABLED=false\nCOVERKIT_REPORTS_DIRECTORY=out\n"), 0o600))

	file, err := ReadEnvFile(path)
	require.NoError(t, err)

	process := map[string]string{EnvReportsDirectory: "ci-reports"}
	lookup := func(k string) (string, bool) {
		v, ok := process[k]
		return v, ok
	}

	var opts domain.CoverageOptions
	require.NoError(t, ApplyEnv(&opts, file, lookup))
	assert.Equal(t, "lcov", *opts.Provider)
	assert.False(t, *opts.Enabled)
	assert.Equal(t, "ci-reports", *opts.ReportsDirectory)
}

func TestApplyEnvRejectsBadBool(t *testing.T) {
	var opts domain.CoverageOptions
	err := ApplyEnv(&opts, map[string]string{EnvEnabled: "sometimes"}, nil)
	assert.True(t, domain.IsConfigError(err))
}

func TestReadEnvFileMissing(t *testing.T) {
	values, err := ReadEnvFile(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Empty(t, values)

	values, err = ReadEnvFile("")
	require.NoError(t, err)
	assert.Empty(t, values)
}
