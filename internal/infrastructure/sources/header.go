package sources

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

const (
	maxScanLines = 20
	pragmaIgnore = "coverkit:ignore"
)

var generatedHeader = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)

// skipByHeader reports whether the first lines of a file carry the ignore
// pragma or a generated-code marker.
func skipByHeader(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from walking the root
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, pragmaIgnore) || generatedHeader.MatchString(line) {
			return true, nil
		}
		if lineNo >= maxScanLines {
			break
		}
	}
	return false, scanner.Err()
}
