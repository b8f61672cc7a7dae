package promptbank

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ValidateVersion checks that version is a strict semantic version, with an
// optional leading "v" (so "v1.2.0" and "1.2.0" both validate). A bank
// version participates in cache identity, so it must be unambiguous: two
// spellings of the same version would otherwise split the content-addressed
// cache for no reason.
func ValidateVersion(version string) error {
	trimmed := strings.TrimPrefix(version, "v")
	if _, err := semver.StrictNewVersion(trimmed); err != nil {
		return fmt.Errorf("not a strict semantic version: %w", err)
	}
	return nil
}
