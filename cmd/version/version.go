// Package version reports the build version of tibbi.
package version

import (
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// CurrentVersion is overridden at release time with
// -ldflags "-X github.com/tibbisekreter/cli/cmd/version.CurrentVersion=v1.2.3".
var CurrentVersion = "dev"

// Normalize returns version with a single "v" prefix. Strings that aren't
// semantic versions (branch names, "dev") are returned trimmed but otherwise
// untouched.
func Normalize(version string) string {
	v, err := parse(version)
	if err != nil {
		return strings.TrimSpace(version)
	}
	return "v" + v.String()
}

// FormatForDisplay is Normalize plus markers for builds that did not come
// from a release tag.
func FormatForDisplay(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return "unknown"
	}
	v, err := parse(version)
	if err != nil {
		return version + " (development build)"
	}
	if v.Prerelease() != "" {
		return "v" + v.String() + " (pre-release)"
	}
	return "v" + v.String()
}

// IsRelease reports whether version is a final semantic version.
func IsRelease(version string) bool {
	v, err := parse(version)
	return err == nil && v.Prerelease() == ""
}

// UserAgent is sent on every request to the chat and stats backends.
func UserAgent() string {
	return fmt.Sprintf("tibbi/%s", strings.TrimPrefix(Normalize(CurrentVersion), "v"))
}

func parse(version string) (*semver.Version, error) {
	trimmed := strings.TrimSpace(version)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "v"), "V")
	return semver.StrictNewVersion(trimmed)
}
