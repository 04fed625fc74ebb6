// Package domain holds the insights query model shared by the builder, executors and shapers
package domain

import "time"

// InsightType selects the queryable entity
type InsightType string

const (
	// InsightWebsite targets website events
	InsightWebsite InsightType = "website"
	// InsightWarehouse targets warehouse application events
	InsightWarehouse InsightType = "warehouse"
)

// Canonical maps the primary/secondary aliases onto entity names
func (t InsightType) Canonical() InsightType {
	switch t {
	case "primary":
		return InsightWebsite
	case "secondary":
		return InsightWarehouse
	}
	return t
}

// Math is the aggregation applied to a metric
type Math string

const (
	// MathEvents counts matching rows
	MathEvents Math = "events"
	// MathSessions counts distinct sessions among matching rows
	MathSessions Math = "sessions"
)

// Reserved metric names
const (
	MetricAllEvent = "$all_event"
	MetricPageView = "$page_view"
)

// Metric is one aggregated output column
type Metric struct {
	Name string `json:"name" validate:"required,max=128"`
	Math Math   `json:"math" validate:"required"`
}

// FilterType is the value type a filter or group reads from the property table
type FilterType string

// Filter types
const (
	FilterNumber FilterType = "number"
	FilterString FilterType = "string"
	FilterDate   FilterType = "date"
)

// Filter narrows the joined property rows
type Filter struct {
	// Name pins the filter to one property key, empty matches any key
	Name     string       `json:"name,omitempty" validate:"max=128"`
	Type     FilterType   `json:"type" validate:"required"`
	Operator string       `json:"operator" validate:"required"`
	Value    *FilterValue `json:"value"`
}

// CustomGroup derives one output column from a predicate on the group property
type CustomGroup struct {
	FilterOperator string       `json:"filterOperator" validate:"required"`
	FilterValue    *FilterValue `json:"filterValue"`
}

// Group splits results by a property
type Group struct {
	Value        string        `json:"value" validate:"required,max=128"`
	Type         FilterType    `json:"type" validate:"required"`
	CustomGroups []CustomGroup `json:"customGroups,omitempty" validate:"dive"`
}

// Unit is the bucket granularity
type Unit string

// Bucket units
const (
	UnitHour  Unit = "hour"
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// Valid reports whether u is a known unit
func (u Unit) Valid() bool {
	switch u {
	case UnitHour, UnitDay, UnitWeek, UnitMonth:
		return true
	}
	return false
}

// TimeWindow is the inclusive query range plus how to bucket it
type TimeWindow struct {
	StartAt  time.Time `json:"startAt" validate:"required"`
	EndAt    time.Time `json:"endAt" validate:"required"`
	Unit     Unit      `json:"unit" validate:"omitempty,oneof=hour day week month"`
	Timezone string    `json:"timezone,omitempty"`
}

// QueryDescriptor is one insights query as built by the caller
type QueryDescriptor struct {
	InsightID   string      `json:"insightId" validate:"required,max=128"`
	InsightType InsightType `json:"insightType" validate:"required"`
	Metrics     []Metric    `json:"metrics" validate:"dive"`
	Filters     []Filter    `json:"filters" validate:"dive"`
	Groups      []Group     `json:"groups" validate:"dive"`
	Time        TimeWindow  `json:"time"`
}

// HasJoin reports whether the property side table must be joined
func (d QueryDescriptor) HasJoin() bool { return len(d.Filters) > 0 || len(d.Groups) > 0 }

// InsightEvent is one reconstructed event
type InsightEvent struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	CreatedAt  time.Time      `json:"createdAt"`
	Properties map[string]any `json:"properties"`
}

// EventQueryInput lists raw events for a descriptor, metrics are ignored
type EventQueryInput struct {
	QueryDescriptor
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

// Event page sizes
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// Cursor is the position after the last returned event, pages walk createdAt then id downwards
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// EventPage is one page of events
type EventPage struct {
	Events     []InsightEvent `json:"events"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// DataType discriminates which value column a property row populates
type DataType int

// Property data types as stored in the side tables
const (
	DataNumber DataType = 1
	DataString DataType = 2
	DataDate   DataType = 3
)

// Property is one EAV side-table row
type Property struct {
	OwnerID     string
	Key         string
	DataType    DataType
	NumberValue *float64
	StringValue *string
	DateValue   *time.Time
}

// Backend names a storage engine
type Backend string

// Backends
const (
	BackendPostgres   Backend = "postgres"
	BackendClickhouse Backend = "clickhouse"
)

// ResultSet is what an executor returns, columns keep select order
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Index returns the position of column name or -1
func (r ResultSet) Index(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
