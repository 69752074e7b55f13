// Package buildinfo reports the version of the trsolver binary.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/WalterStager/thaumcraft-research-solver/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/WalterStager/thaumcraft-research-solver/pkg/buildinfo.Commit=$(git rev-parse HEAD)" \
//	    ./cmd/trsolver
//
// Binaries built with go install get the module version and VCS stamp
// from the embedded build info instead.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

var fillOnce sync.Once

// fill copies module and VCS data into fields still at their defaults.
func fill(info *debug.BuildInfo) {
	if info == nil {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		}
	}
}

func load() {
	fillOnce.Do(func() {
		info, _ := debug.ReadBuildInfo()
		fill(info)
	})
}

// String returns the formatted build information.
func String() string {
	load()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	load()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
