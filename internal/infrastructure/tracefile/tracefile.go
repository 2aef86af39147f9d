// Package tracefile parses the coverage files written by external samplers
// and instrumenters. LCOV and Cobertura XML are recognized by content.
package tracefile

import (
	"bytes"
	"errors"

	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

// Format identifies a tracefile layout.
type Format string

const (
	FormatUnknown   Format = ""
	FormatGo        Format = "go"
	FormatLCOV      Format = "lcov"
	FormatCobertura Format = "cobertura"
)

// ErrUnknownFormat is returned for payloads no parser recognizes.
var ErrUnknownFormat = errors.New("unrecognized coverage format")

// Detect sniffs the format from the first bytes of a payload.
func Detect(content []byte) Format {
	head := content
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.TrimSpace(head)
	switch {
	case bytes.HasPrefix(head, []byte("mode:")):
		return FormatGo
	case isXML(head) && bytes.Contains(head, []byte("<coverage")):
		return FormatCobertura
	case isLCOV(head):
		return FormatLCOV
	default:
		return FormatUnknown
	}
}

// Parse decodes an LCOV or Cobertura payload.
func Parse(payload []byte) ([]*coverage.FileCoverage, error) {
	switch Detect(payload) {
	case FormatLCOV:
		return ParseLCOV(bytes.NewReader(payload))
	case FormatCobertura:
		return ParseCobertura(bytes.NewReader(payload))
	default:
		return nil, ErrUnknownFormat
	}
}

func isXML(content []byte) bool {
	return bytes.HasPrefix(content, []byte("<?xml")) || bytes.HasPrefix(content, []byte("<"))
}

func isLCOV(content []byte) bool {
	return bytes.Contains(content, []byte("SF:")) &&
		(bytes.Contains(content, []byte("DA:")) || bytes.Contains(content, []byte("end_of_record")))
}
