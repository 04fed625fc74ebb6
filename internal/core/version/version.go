// Package version reports what build is answering queries
package version

import (
	"runtime/debug"
	"sync"
)

// BuildInfo is served by /meta/version and /meta/backend
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Modified  bool   `json:"modified"`
}

// set with -ldflags "-X insights/internal/core/version.version=v0.3.0"
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Info merges the link time values with what the toolchain stamped into the binary
var Info = sync.OnceValue(func() BuildInfo {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
})

func resolve(bi *debug.BuildInfo) BuildInfo {
	out := BuildInfo{Service: "insights-api", Version: version, Commit: commit, Date: date}
	if bi == nil {
		return fill(out)
	}
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "" {
				out.Commit = s.Value
			}
		case "vcs.time":
			if out.Date == "" {
				out.Date = s.Value
			}
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}
	return fill(out)
}

func fill(b BuildInfo) BuildInfo {
	if b.Commit == "" {
		b.Commit = "none"
	}
	if b.Date == "" {
		b.Date = "unknown"
	}
	return b
}
