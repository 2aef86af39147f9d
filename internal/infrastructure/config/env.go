package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// Environment variables overlaying the config file.
const (
	EnvProvider         = "COVERKIT_PROVIDER"
	EnvEnabled          = "COVERKIT_ENABLED"
	EnvReportsDirectory = "COVERKIT_REPORTS_DIRECTORY"
)

// ReadEnvFile reads a dotenv file. A missing file yields no values.
func ReadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &domain.ConfigError{Field: "env", Value: path, Msg: err.Error()}
	}
	return values, nil
}

// ApplyEnv overlays COVERKIT_* values onto opts. The process environment,
// read through lookup, wins over values from the dotenv file.
func ApplyEnv(opts *domain.CoverageOptions, file map[string]string, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		v, ok := file[key]
		return v, ok
	}

	if v, ok := get(EnvProvider); ok && v != "" {
		opts.Provider = &v
	}
	if v, ok := get(EnvEnabled); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigError{Field: EnvEnabled, Value: v, Msg: "expected a boolean"}
		}
		opts.Enabled = &enabled
	}
	if v, ok := get(EnvReportsDirectory); ok && v != "" {
		opts.ReportsDirectory = &v
	}
	return nil
}
