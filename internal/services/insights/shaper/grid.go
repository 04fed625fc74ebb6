// Package shaper turns raw grouped rows into gap filled, timezone aligned series
package shaper

import (
	"time"

	"github.com/jinzhu/now"

	"insights/internal/services/insights/domain"
)

// DefaultMaxBuckets caps the grid so a wide window at hour granularity cannot explode
const DefaultMaxBuckets = 10000

// calendar floors instants onto unit boundaries in one location, weeks start on Monday
type calendar struct {
	loc  *time.Location
	unit domain.Unit
	cfg  *now.Config
}

func newCalendar(w domain.TimeWindow) (calendar, error) {
	loc, err := w.Location()
	if err != nil {
		return calendar{}, err
	}
	return calendar{
		loc:  loc,
		unit: w.Unit,
		cfg:  &now.Config{WeekStartDay: time.Monday, TimeLocation: loc},
	}, nil
}

// floor returns the start of the bucket holding t
func (c calendar) floor(t time.Time) time.Time {
	t = t.In(c.loc)
	if c.unit == domain.UnitHour {
		return floorHour(t)
	}
	n := c.cfg.With(t)
	switch c.unit {
	case domain.UnitWeek:
		return n.BeginningOfWeek()
	case domain.UnitMonth:
		return n.BeginningOfMonth()
	default:
		return n.BeginningOfDay()
	}
}

// floorHour truncates in absolute time with the offset in force at t, both copies of a repeated hour stay distinct
func floorHour(t time.Time) time.Time {
	_, off := t.Zone()
	shift := time.Duration(off) * time.Second
	return t.Add(shift).Truncate(time.Hour).Add(-shift).In(t.Location())
}

// next returns the start of the bucket after b, b must already be floored
func (c calendar) next(b time.Time) time.Time {
	switch c.unit {
	case domain.UnitHour:
		// flooring would fold the repeated hour of a DST fall back onto itself
		return b.Add(time.Hour)
	case domain.UnitWeek:
		return c.floor(b.AddDate(0, 0, 7))
	case domain.UnitMonth:
		return c.floor(b.AddDate(0, 1, 0))
	default:
		return c.floor(b.AddDate(0, 0, 1))
	}
}

// Grid lists bucket starts from the bucket holding startAt through the one holding endAt
func Grid(w domain.TimeWindow, maxBuckets int) ([]time.Time, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}
	c, err := newCalendar(w)
	if err != nil {
		return nil, err
	}
	return c.grid(w.StartAt, w.EndAt, maxBuckets)
}

func (c calendar) grid(start, end time.Time, maxBuckets int) ([]time.Time, error) {
	last := c.floor(end)
	var out []time.Time
	for b := c.floor(start); !b.After(last); b = c.next(b) {
		if len(out) == maxBuckets {
			return nil, domain.InvalidDescriptorf("time", "window spans more than %d %s buckets", maxBuckets, c.unit)
		}
		out = append(out, b)
	}
	return out, nil
}
