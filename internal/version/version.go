// Package version reports build information for the collector.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/dReserve/FAT/internal/version.Version=1.0.0 \
//	                   -X github.com/dReserve/FAT/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/collector
//
// Unstamped builds fall back to the VCS data the Go toolchain embeds.
package version

import (
	"runtime/debug"
	"sync"
)

// Set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var once sync.Once

// fill copies embedded VCS data into variables ldflags left unset.
func fill() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && len(s.Value) >= 7 {
				Commit = s.Value[:7]
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				BuildTime = s.Value
			}
		}
	}
}

// String returns "<version> (<commit>) built <time>".
func String() string {
	once.Do(fill)
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent identifies the collector in outbound API requests.
func UserAgent() string {
	once.Do(fill)
	return "fat-collector/" + Version
}
