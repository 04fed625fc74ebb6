// Package config reads service settings from the environment
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"insights/internal/platform/logger"
)

// Conf is a prefixed view over the environment, e.g. Prefix("INSIGHTS_")
type Conf struct{ prefix string }

// New returns the unprefixed root view
func New() Conf { return Conf{} }

// Prefix returns a child view whose keys are prefixed with p
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// lookup returns the trimmed value and whether it was set to anything non blank
func (c Conf) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(c.key(key)))
	return v, v != ""
}

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v, ok := c.lookup(key)
	if !ok {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MayString returns def when key is unset
func (c Conf) MayString(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

// MayInt returns def when key is unset or not an integer
func (c Conf) MayInt(key string, def int) int {
	return mayParse(c, key, def, strconv.Atoi)
}

// MayBool returns def when key is unset or not a bool
func (c Conf) MayBool(key string, def bool) bool {
	return mayParse(c, key, def, strconv.ParseBool)
}

// MayDuration returns def when key is unset or not a duration like 250ms
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return mayParse(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated list, blanks are dropped
func (c Conf) MayCSV(key string, def []string) []string {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the configured value when it matches one of allowed (case insensitive), panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

// mayParse falls back to def with a warning when the value does not parse
func mayParse[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s, ok := c.lookup(key)
	if !ok {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Interface("default", def).Msg("invalid value, using default")
		return def
	}
	return v
}
