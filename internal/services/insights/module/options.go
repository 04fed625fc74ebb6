package module

import (
	"strings"

	"insights/internal/platform/config"
	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/shaper"
)

// Options holds configuration settings for the insights module
type Options struct {
	Backend         domain.Backend
	MaxBuckets      int
	EventsPageLimit int
}

// FromConfig reads INSIGHTS_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("INSIGHTS_")
	return Options{
		Backend: domain.Backend(strings.ToLower(c.MayEnum("BACKEND", string(domain.BackendPostgres),
			string(domain.BackendPostgres), string(domain.BackendClickhouse)))),
		MaxBuckets:      c.MayInt("MAX_BUCKETS", shaper.DefaultMaxBuckets),
		EventsPageLimit: c.MayInt("EVENTS_PAGE_LIMIT", domain.DefaultEventLimit),
	}
}
