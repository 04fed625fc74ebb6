package domain

import (
	"strings"
	"time"

	ptime "insights/internal/platform/time"
)

// Location resolves the window timezone, empty means UTC
func (w TimeWindow) Location() (*time.Location, error) {
	loc, err := ptime.LoadLocation(w.Timezone)
	if err != nil {
		return nil, InvalidDescriptorf("time.timezone", "unknown timezone %q", w.Timezone)
	}
	return loc, nil
}

// Validate checks the window bounds, unit and timezone
func (w TimeWindow) Validate() error {
	if w.StartAt.IsZero() || w.EndAt.IsZero() {
		return InvalidDescriptorf("time", "startAt and endAt are required")
	}
	if w.StartAt.After(w.EndAt) {
		return InvalidDescriptorf("time", "startAt %s is after endAt %s",
			w.StartAt.UTC().Format(time.RFC3339), w.EndAt.UTC().Format(time.RFC3339))
	}
	if !w.Unit.Valid() {
		return InvalidDescriptorf("time.unit", "unknown unit %q", w.Unit)
	}
	_, err := w.Location()
	return err
}

// ValidateScope checks what every query needs regardless of metrics
func (d QueryDescriptor) ValidateScope() error {
	if strings.TrimSpace(d.InsightID) == "" {
		return InvalidDescriptorf("insightId", "insightId is required")
	}
	return d.Time.Validate()
}

// Validate checks an aggregation descriptor
func (d QueryDescriptor) Validate() error {
	if err := d.ValidateScope(); err != nil {
		return err
	}
	if len(d.Metrics) == 0 {
		return InvalidDescriptorf("metrics", "at least one metric is required")
	}
	seen := make(map[string]struct{}, len(d.Metrics))
	for _, m := range d.Metrics {
		if strings.TrimSpace(m.Name) == "" {
			return InvalidDescriptorf("metrics.name", "metric name is required")
		}
		if _, dup := seen[m.Name]; dup {
			return InvalidDescriptorf("metrics.name", "duplicate metric %q", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}
