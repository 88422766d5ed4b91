package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version set at build-time with -ldflags "-X"
var version = "main"

const (
	commitHashLen = 7
	unknown       = "unknown"
)

// Info describes the running relayd build.
type Info struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	CommitTime string `json:"commit_time"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// BuildInfo collects the version stamped by the linker and the vcs data
// recorded by the Go toolchain.
func BuildInfo() Info {
	info := Info{
		Version:    version,
		Commit:     unknown,
		CommitTime: unknown,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > commitHashLen {
				info.Commit = info.Commit[:commitHashLen]
			}
		case "vcs.time":
			info.CommitTime = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}

	return info
}

// Version returns the version
func Version() string {
	return version
}

// String is the one line form logged at startup.
func String() string {
	info := BuildInfo()
	commit := info.Commit
	if info.Modified {
		commit += "-dirty"
	}

	return fmt.Sprintf("relayd %s (%s, %s, %s)", info.Version, commit, info.GoVersion, info.Platform)
}
