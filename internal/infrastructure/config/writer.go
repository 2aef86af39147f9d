package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// ThresholdWriter persists auto-updated thresholds into a config file. Only
// the coverage.thresholds node is replaced; comments and unrelated keys
// survive.
type ThresholdWriter struct {
	Path string
}

func (w ThresholdWriter) WriteThresholds(th domain.Thresholds) error {
	mode := os.FileMode(0o600)
	// #nosec G304 - config path is provided by the user
	data, err := os.ReadFile(w.Path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(w.Path); statErr == nil {
			mode = info.Mode().Perm()
		}
	case errors.Is(err, os.ErrNotExist):
		data = nil
	default:
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", w.Path, err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level must be a mapping", w.Path)
	}
	coverage := mappingValue(top, "coverage")
	if coverage.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: coverage must be a mapping", w.Path)
	}
	setMappingValue(coverage, "thresholds", thresholdsNode(th))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(w.Path, buf.Bytes(), mode)
}

// mappingValue returns the value node for key, creating an empty mapping
// when the key is missing or null.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			v := m.Content[i+1]
			if v.Kind == yaml.ScalarNode && v.Tag == "!!null" {
				*v = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			}
			return v
		}
	}
	v := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = append(m.Content, scalar(key), v)
	return v
}

func setMappingValue(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			value.HeadComment = m.Content[i+1].HeadComment
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, scalar(key), value)
}
