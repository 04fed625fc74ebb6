// Package time contains time related helpers
package time

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// zones memoizes tz database lookups, entries never change for a process
var zones = cache.New(cache.NoExpiration, 0)

// LoadLocation resolves an IANA zone name, empty means UTC
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	if v, ok := zones.Get(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	zones.SetDefault(name, loc)
	return loc, nil
}
