package ch

import (
	"os"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClientInfo names this process in system.query_log, tag is the binary flavour
func ClientInfo(app, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		{Name: orUnknown(app), Version: orUnknown(tag)},
		{Name: "rev", Version: revision()},
		{Name: "host", Version: orUnknown(host)},
	}}
}

func revision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return "unknown"
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
