package config

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// reporterList accepts a single name, a list of names, or a list mixing
// names and [name, {options}] pairs.
type reporterList []domain.RawReporter

func (r *reporterList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = reporterList{{Name: node.Value}}
		return nil
	case yaml.SequenceNode:
		out := make(reporterList, 0, len(node.Content))
		for _, item := range node.Content {
			entry, err := decodeReporter(item)
			if err != nil {
				return err
			}
			out = append(out, entry)
		}
		*r = out
		return nil
	default:
		return &domain.ConfigError{Field: "reporter", Msg: "expected a name or a list"}
	}
}

func decodeReporter(item *yaml.Node) (domain.RawReporter, error) {
	switch item.Kind {
	case yaml.ScalarNode:
		return domain.RawReporter{Name: item.Value}, nil
	case yaml.SequenceNode:
		if len(item.Content) == 0 || len(item.Content) > 2 || item.Content[0].Kind != yaml.ScalarNode {
			return domain.RawReporter{}, &domain.ConfigError{Field: "reporter", Msg: "expected [name, {options}]"}
		}
		entry := domain.RawReporter{Name: item.Content[0].Value}
		if len(item.Content) == 2 {
			if err := item.Content[1].Decode(&entry.Options); err != nil {
				return domain.RawReporter{}, &domain.ConfigError{Field: "reporter", Value: entry.Name, Msg: "options must be a mapping"}
			}
		}
		return entry, nil
	default:
		return domain.RawReporter{}, &domain.ConfigError{Field: "reporter", Msg: "expected a name or [name, {options}]"}
	}
}

func (r reporterList) MarshalYAML() (any, error) {
	out := make([]any, 0, len(r))
	for _, entry := range r {
		if len(entry.Options) == 0 {
			out = append(out, entry.Name)
			continue
		}
		out = append(out, []any{entry.Name, entry.Options})
	}
	return out, nil
}

// thresholdsYAML maps the thresholds block. Metric keys and `100` at the
// top level are global; perFile and autoUpdate are flags; every other key
// is a glob with its own metric block.
type thresholdsYAML domain.Thresholds

const keyAll100 = "100"

func (t *thresholdsYAML) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &domain.ConfigError{Field: "thresholds", Msg: "expected a mapping"}
	}
	var out domain.Thresholds
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "perFile":
			if err := value.Decode(&out.PerFile); err != nil {
				return thresholdError(key, err)
			}
		case "autoUpdate":
			if err := value.Decode(&out.AutoUpdate); err != nil {
				return thresholdError(key, err)
			}
		default:
			ok, err := decodeMetricKey(&out.Global, key, value)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			mt, err := decodeMetricThresholds(key, value)
			if err != nil {
				return err
			}
			if out.Globs == nil {
				out.Globs = map[string]domain.MetricThresholds{}
			}
			out.Globs[key] = mt
		}
	}
	*t = thresholdsYAML(out)
	return nil
}

func (t thresholdsYAML) MarshalYAML() (any, error) {
	return thresholdsNode(domain.Thresholds(t)), nil
}

// decodeMetricKey stores key into mt when it names a metric or the 100
// shortcut.
func decodeMetricKey(mt *domain.MetricThresholds, key string, value *yaml.Node) (bool, error) {
	if key == keyAll100 {
		if err := value.Decode(&mt.All100); err != nil {
			return true, thresholdError(key, err)
		}
		return true, nil
	}
	name := domain.MetricName(key)
	if !isMetric(name) {
		return false, nil
	}
	var v float64
	if err := value.Decode(&v); err != nil {
		return true, thresholdError(key, err)
	}
	mt.Set(name, v)
	return true, nil
}

func decodeMetricThresholds(glob string, node *yaml.Node) (domain.MetricThresholds, error) {
	var mt domain.MetricThresholds
	if node.Kind != yaml.MappingNode {
		return mt, &domain.ConfigError{Field: "thresholds", Value: glob, Msg: "expected a metric mapping"}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		ok, err := decodeMetricKey(&mt, key, node.Content[i+1])
		if err != nil {
			return mt, err
		}
		if !ok {
			return mt, &domain.ConfigError{Field: "thresholds", Value: glob + "." + key, Msg: "unknown key in glob thresholds"}
		}
	}
	return mt, nil
}

func thresholdError(key string, err error) error {
	return &domain.ConfigError{Field: "thresholds", Value: key, Msg: err.Error()}
}

// thresholdsNode renders thresholds in a stable key order: global
// metrics, flags, then globs sorted.
func thresholdsNode(th domain.Thresholds) *yaml.Node {
	node := metricNode(th.Global)
	if th.PerFile {
		node.Content = append(node.Content, scalar("perFile"), boolNode(true))
	}
	if th.AutoUpdate {
		node.Content = append(node.Content, scalar("autoUpdate"), boolNode(true))
	}
	for _, glob := range th.GlobPatterns() {
		node.Content = append(node.Content, scalar(glob), metricNode(th.Globs[glob]))
	}
	return node
}

func metricNode(mt domain.MetricThresholds) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if mt.All100 {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: keyAll100}, boolNode(true))
	}
	for _, name := range domain.Metrics {
		if v := mt.Get(name); v != nil {
			node.Content = append(node.Content, scalar(string(name)), numberNode(*v))
		}
	}
	return node
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

func numberNode(v float64) *yaml.Node {
	if v == math.Trunc(v) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%.0f", v)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v, 'f', -1, 64)}
}
