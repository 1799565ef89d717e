// Package version reports build metadata stamped at link time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the product name reported by the API and the CLI.
const Name = "shutterdeck"

// Set with -ldflags "-X github.com/smazurov/shutterdeck/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	Modified  bool   `json:"modified"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata. Without a stamped commit it falls back to
// the VCS settings the Go toolchain embeds.
func Get() Info {
	info := Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
		if bi, ok := debug.ReadBuildInfo(); ok {
			applyVCS(&info, bi.Settings)
		}
	}
	return info
}

func applyVCS(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		}
	}
}

// String formats the version for logs and the CLI.
func (i Info) String() string {
	commit := i.GitCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s %s (%s, built %s)", i.Name, i.Version, commit, i.BuildDate)
}

// String returns the bare version, used as the OpenAPI document version.
func String() string {
	return Version
}
