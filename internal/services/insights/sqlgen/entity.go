package sqlgen

import (
	"insights/internal/services/insights/domain"
)

// PageView describes how an entity marks built-in page views
type PageView struct {
	TypeColumn string
	Value      int
}

// DataTable is the EAV side table attached to an entity
type DataTable struct {
	Table  string
	Owner  string
	Key    string
	Type   string
	Number string
	String string
	Date   string
}

// Entity is one queryable event table plus its property side table
type Entity struct {
	Name      domain.InsightType
	Table     string
	ID        string
	Scope     string
	CreatedAt string
	EventName string
	Session   string

	// PageView is nil when the entity has no page-view marker
	PageView *PageView

	Data DataTable

	// BuiltIns are copied into every event's properties and win over EAV keys
	BuiltIns []string

	// DefaultName names events whose eventName is null
	DefaultName string
}

// Website is the tracked website event stream
var Website = Entity{
	Name:      domain.InsightWebsite,
	Table:     "WebsiteEvent",
	ID:        "id",
	Scope:     "websiteId",
	CreatedAt: "createdAt",
	EventName: "eventName",
	Session:   "sessionId",
	PageView:  &PageView{TypeColumn: "eventType", Value: 1},
	Data: DataTable{
		Table:  "WebsiteEventData",
		Owner:  "websiteEventId",
		Key:    "eventKey",
		Type:   "dataType",
		Number: "numberValue",
		String: "stringValue",
		Date:   "dateValue",
	},
	BuiltIns: []string{
		"sessionId",
		"urlPath",
		"urlQuery",
		"referrerPath",
		"referrerQuery",
		"referrerDomain",
		"pageTitle",
	},
	DefaultName: "Page View",
}

// Warehouse is the application event stream loaded from a warehouse
var Warehouse = Entity{
	Name:      domain.InsightWarehouse,
	Table:     "WarehouseEvent",
	ID:        "id",
	Scope:     "applicationId",
	CreatedAt: "createdAt",
	EventName: "eventName",
	Session:   "sessionId",
	Data: DataTable{
		Table:  "WarehouseEventData",
		Owner:  "warehouseEventId",
		Key:    "key",
		Type:   "dataType",
		Number: "numberValue",
		String: "stringValue",
		Date:   "dateValue",
	},
	BuiltIns:    []string{"sessionId", "source"},
	DefaultName: "Event",
}

var entities = map[domain.InsightType]Entity{
	domain.InsightWebsite:   Website,
	domain.InsightWarehouse: Warehouse,
}

// Resolve finds the entity behind an insight type
func Resolve(t domain.InsightType) (Entity, error) {
	e, ok := entities[t.Canonical()]
	if !ok {
		return Entity{}, domain.UnknownEntityf("no entity for insight type %q", t)
	}
	if err := e.check(); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// check runs every identifier through the allow-list
func (e Entity) check() error {
	names := []string{
		e.Table, e.ID, e.Scope, e.CreatedAt, e.EventName, e.Session,
		e.Data.Table, e.Data.Owner, e.Data.Key, e.Data.Type, e.Data.Number, e.Data.String, e.Data.Date,
	}
	if e.PageView != nil {
		names = append(names, e.PageView.TypeColumn)
	}
	names = append(names, e.BuiltIns...)
	for _, n := range names {
		if err := checkIdent(n); err != nil {
			return err
		}
	}
	return nil
}

// ValueColumn is the side-table column holding values of type t
func (e Entity) ValueColumn(t domain.FilterType) (string, bool) {
	switch t {
	case domain.FilterNumber:
		return e.Data.Number, true
	case domain.FilterString:
		return e.Data.String, true
	case domain.FilterDate:
		return e.Data.Date, true
	}
	return "", false
}
