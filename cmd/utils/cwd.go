package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// OverrideCwd is set by the --cwd flag.
var OverrideCwd string

// GetEffectiveCWD returns the absolute --cwd value when set, otherwise the
// process working directory.
func GetEffectiveCWD() string {
	if dir := strings.TrimSpace(OverrideCwd); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "."
		}
		return abs
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}
