// Package config loads coverage options from .coverkit.yaml and the
// environment, and writes auto-updated thresholds back.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// DefaultFile is the config file looked up in the project root.
const DefaultFile = ".coverkit.yaml"

type Loader struct{}

type fileConfig struct {
	Coverage fileCoverage `yaml:"coverage"`
}

type fileCoverage struct {
	Provider              *string              `yaml:"provider,omitempty"`
	Enabled               *bool                `yaml:"enabled,omitempty"`
	Clean                 *bool                `yaml:"clean,omitempty"`
	CleanOnRerun          *bool                `yaml:"cleanOnRerun,omitempty"`
	ReportsDirectory      *string              `yaml:"reportsDirectory,omitempty"`
	Root                  *string              `yaml:"root,omitempty"`
	Include               []string             `yaml:"include,omitempty"`
	Exclude               []string             `yaml:"exclude,omitempty"`
	Extensions            []string             `yaml:"extensions,omitempty"`
	Reporter              reporterList         `yaml:"reporter,omitempty"`
	ReportOnFailure       *bool                `yaml:"reportOnFailure,omitempty"`
	AllowExternal         *bool                `yaml:"allowExternal,omitempty"`
	All                   *bool                `yaml:"all,omitempty"`
	SkipFull              *bool                `yaml:"skipFull,omitempty"`
	ProcessingConcurrency *int                 `yaml:"processingConcurrency,omitempty"`
	Thresholds            *thresholdsYAML      `yaml:"thresholds,omitempty"`
	Watermarks            map[string][]float64 `yaml:"watermarks,omitempty"`
	CoverMode             *string              `yaml:"coverMode,omitempty"`
	CoverPkg              []string             `yaml:"coverPkg,omitempty"`
	Tracefile             *string              `yaml:"tracefile,omitempty"`
	CustomProviderModule  *string              `yaml:"customProviderModule,omitempty"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads the coverage block of a config file. A missing file wraps
// application.ErrConfigNotFound; malformed content is a ConfigError.
func (l Loader) Load(path string) (domain.CoverageOptions, error) {
	// #nosec G304 - config path is provided by the user
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CoverageOptions{}, fmt.Errorf("%w: %s", application.ErrConfigNotFound, path)
		}
		return domain.CoverageOptions{}, err
	}
	opts, err := Decode(raw)
	if err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			return domain.CoverageOptions{}, err
		}
		return domain.CoverageOptions{}, &domain.ConfigError{Field: "config", Value: path, Msg: err.Error()}
	}
	return opts, nil
}

// Decode parses YAML config content.
func Decode(raw []byte) (domain.CoverageOptions, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return domain.CoverageOptions{}, err
	}
	return cfg.Coverage.toOptions()
}

func (c fileCoverage) toOptions() (domain.CoverageOptions, error) {
	opts := domain.CoverageOptions{
		Provider:              c.Provider,
		Enabled:               c.Enabled,
		Clean:                 c.Clean,
		CleanOnRerun:          c.CleanOnRerun,
		ReportsDirectory:      c.ReportsDirectory,
		Root:                  c.Root,
		Include:               c.Include,
		Exclude:               c.Exclude,
		Extensions:            c.Extensions,
		Reporter:              []domain.RawReporter(c.Reporter),
		ReportOnFailure:       c.ReportOnFailure,
		AllowExternal:         c.AllowExternal,
		All:                   c.All,
		SkipFull:              c.SkipFull,
		ProcessingConcurrency: c.ProcessingConcurrency,
		CoverMode:             c.CoverMode,
		CoverPkg:              c.CoverPkg,
		Tracefile:             c.Tracefile,
		CustomProviderModule:  c.CustomProviderModule,
	}
	if c.Thresholds != nil {
		th := domain.Thresholds(*c.Thresholds)
		opts.Thresholds = &th
	}
	if len(c.Watermarks) > 0 {
		opts.Watermarks = make(domain.Watermarks, len(c.Watermarks))
		for name, band := range c.Watermarks {
			metric := domain.MetricName(name)
			if !isMetric(metric) {
				return domain.CoverageOptions{}, &domain.ConfigError{Field: "watermarks", Value: name, Msg: "unknown metric"}
			}
			if len(band) != 2 {
				return domain.CoverageOptions{}, &domain.ConfigError{Field: "watermarks", Value: name, Msg: "expected [low, high]"}
			}
			opts.Watermarks[metric] = domain.Watermark{band[0], band[1]}
		}
	}
	return opts, nil
}

func fromOptions(opts domain.CoverageOptions) fileCoverage {
	c := fileCoverage{
		Provider:              opts.Provider,
		Enabled:               opts.Enabled,
		Clean:                 opts.Clean,
		CleanOnRerun:          opts.CleanOnRerun,
		ReportsDirectory:      opts.ReportsDirectory,
		Root:                  opts.Root,
		Include:               opts.Include,
		Exclude:               opts.Exclude,
		Extensions:            opts.Extensions,
		Reporter:              reporterList(opts.Reporter),
		ReportOnFailure:       opts.ReportOnFailure,
		AllowExternal:         opts.AllowExternal,
		All:                   opts.All,
		SkipFull:              opts.SkipFull,
		ProcessingConcurrency: opts.ProcessingConcurrency,
		CoverMode:             opts.CoverMode,
		CoverPkg:              opts.CoverPkg,
		Tracefile:             opts.Tracefile,
		CustomProviderModule:  opts.CustomProviderModule,
	}
	if opts.Thresholds != nil {
		th := thresholdsYAML(*opts.Thresholds)
		c.Thresholds = &th
	}
	if len(opts.Watermarks) > 0 {
		c.Watermarks = make(map[string][]float64, len(opts.Watermarks))
		for name, band := range opts.Watermarks {
			c.Watermarks[string(name)] = []float64{band[0], band[1]}
		}
	}
	return c
}

// Write encodes opts as a complete config file.
func Write(w io.Writer, opts domain.CoverageOptions) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fileConfig{Coverage: fromOptions(opts)}); err != nil {
		return err
	}
	return enc.Close()
}

// WriteResolved encodes resolved options, thresholds included.
func WriteResolved(w io.Writer, opts domain.ResolvedCoverageOptions) error {
	var node yaml.Node
	if err := node.Encode(opts); err != nil {
		return err
	}
	node.Content = append(node.Content, scalar("thresholds"), thresholdsNode(opts.Thresholds))
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func isMetric(name domain.MetricName) bool {
	for _, m := range domain.Metrics {
		if m == name {
			return true
		}
	}
	return false
}
