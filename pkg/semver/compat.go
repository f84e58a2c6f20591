package semver

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const compatLogPrefix = "semver:compat"

// ErrIncompatible is returned when the proxy version falls outside the accepted range.
var ErrIncompatible = errors.New("incompatible proxy version")

// SatisfiesRange checks if a version string satisfies a range. Major-only
// ranges ("1") match any version with that major; exact versions must match
// exactly; anything else is a Masterminds constraint ("^1.2.0", ">=1.0 <2").
func SatisfiesRange(version, rangeStr string) bool {
	sv, err := ParseVersion(version)
	if err != nil {
		return false
	}

	if IsMajorOnly(rangeStr) {
		return int(sv.Major()) == ExtractMajorFromRange(rangeStr)
	}

	if IsExactVersion(rangeStr) {
		want, err := masterminds.NewVersion(rangeStr)
		return err == nil && sv.Equal(want)
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false
	}
	return constraint.Check(sv)
}

// ValidateRange reports whether rangeStr can be used as an accepted range.
func ValidateRange(rangeStr string) error {
	r := strings.TrimSpace(rangeStr)
	if r == "" || IsMajorOnly(r) || IsExactVersion(r) {
		return nil
	}
	if _, err := masterminds.NewConstraint(r); err != nil {
		return fmt.Errorf("%s - invalid version range %q: %w", compatLogPrefix, rangeStr, err)
	}
	return nil
}

// CheckCompatible returns nil when rangeStr is empty or version satisfies it.
func CheckCompatible(version, rangeStr string) error {
	r := strings.TrimSpace(rangeStr)
	if r == "" {
		return nil
	}
	if err := ValidateRange(r); err != nil {
		return err
	}
	if _, err := ParseVersion(version); err != nil {
		return fmt.Errorf("%s - proxy reported an unusable version: %w", compatLogPrefix, err)
	}
	if !SatisfiesRange(version, r) {
		slog.Warn(fmt.Sprintf("%s - proxy version %s does not satisfy %s", compatLogPrefix, version, r))
		return fmt.Errorf("%s - proxy %s not in %s: %w", compatLogPrefix, version, r, ErrIncompatible)
	}
	slog.Debug(fmt.Sprintf("%s - proxy version %s satisfies %s", compatLogPrefix, version, r))
	return nil
}
