package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNoResults   = errors.New("merge requires at least one coverage result")
	ErrTestsFailed = errors.New("test run failed")
)

// ConfigError reports malformed coverage options. It is surfaced before any
// test runs and is always fatal.
type ConfigError struct {
	Field string
	Value string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid coverage option %s %q: %s", e.Field, e.Value, e.Msg)
	}
	return fmt.Sprintf("invalid coverage option %s: %s", e.Field, e.Msg)
}

// ProviderInitError aborts the run before any worker starts.
type ProviderInitError struct {
	Provider string
	Err      error
}

func (e *ProviderInitError) Error() string {
	return fmt.Sprintf("initialize coverage provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderInitError) Unwrap() error { return e.Err }

// CollectionError marks a single file whose coverage payload was missing or
// malformed. The file is treated as having no coverage; the run continues.
type CollectionError struct {
	File string
	Err  error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect coverage for %s: %v", e.File, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// GenerationError means no report can be produced.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate coverage with %s: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// CapabilityError is returned when an optional provider capability is used
// but the active provider does not implement it.
type CapabilityError struct {
	Provider   string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("coverage provider %s does not support %s", e.Provider, e.Capability)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsCapabilityError reports whether err is or wraps a CapabilityError.
func IsCapabilityError(err error) bool {
	var target *CapabilityError
	return errors.As(err, &target)
}
