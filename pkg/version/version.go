// Package version reports build information set via ldflags.
package version

import (
	"fmt"
	"io"
	"runtime"
)

// These variables are set via ldflags during build.
var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Summary returns the version with a short commit hash when one is known.
func Summary() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if Commit != "" && Commit != "none" {
		short := Commit
		if len(short) > 7 {
			short = short[:7]
		}
		return fmt.Sprintf("%s (%s)", v, short)
	}
	return v
}

// Print writes the full build information for --version.
func Print(w io.Writer) {
	fmt.Fprintf(w, "gemchat version %s\n", Summary())
	fmt.Fprintf(w, "  commit: %s\n", Commit)
	fmt.Fprintf(w, "  built: %s\n", Date)
	fmt.Fprintf(w, "  go: %s\n", GoVersion)
	fmt.Fprintf(w, "  platform: %s\n", Platform())
}
