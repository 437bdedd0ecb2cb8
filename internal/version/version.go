// Package version reports build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String describes binary's build, e.g.
// "dwbrc 1.2.3 (commit=abc123, date=2026-02-18, go=go1.25.5)".
func String(binary string) string {
	return fmt.Sprintf("%s %s (commit=%s, date=%s, go=%s)", binary, Version, Commit, Date, runtime.Version())
}
