package coverage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FormatVersion identifies the blob layout.
const FormatVersion = 1

// ErrProviderMismatch is returned when a blob was written by another provider.
var ErrProviderMismatch = errors.New("coverage blob written by a different provider")

type blob struct {
	Version  int             `json:"version"`
	Provider string          `json:"provider"`
	Files    []*FileCoverage `json:"files"`
}

// Encode serializes m for provider. Output is deterministic.
func Encode(provider string, m *Map) ([]byte, error) {
	return json.MarshalIndent(blob{Version: FormatVersion, Provider: provider, Files: m.Entries()}, "", "  ")
}

// Decode reads a blob written by Encode for the same provider.
func Decode(provider string, data []byte) (*Map, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode coverage blob: %w", err)
	}
	if b.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported coverage blob version %d", b.Version)
	}
	if b.Provider != provider {
		return nil, fmt.Errorf("%w: %q, expected %q", ErrProviderMismatch, b.Provider, provider)
	}
	m := NewMap()
	for _, fc := range b.Files {
		if fc == nil || fc.Path == "" {
			return nil, errors.New("decode coverage blob: entry without path")
		}
		m.Add(fc)
	}
	return m, nil
}
