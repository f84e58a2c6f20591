// Package semver checks the version reported by the proxy against the range
// this library was configured to accept.
package semver

import (
	"fmt"
	"regexp"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:parser"

var (
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// ParseVersion parses a proxy version string. A leading "v" is accepted.
func ParseVersion(version string) (*masterminds.Version, error) {
	v := strings.TrimSpace(version)
	if v == "" {
		return nil, fmt.Errorf("%s - empty version", logPrefix)
	}
	sv, err := masterminds.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}
	return sv, nil
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "3.2.1").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	var major int
	fmt.Sscanf(rangeStr, "%d", &major)
	return major
}
