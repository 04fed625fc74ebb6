package swaggerkit

import (
	"github.com/swaggo/swag/v2"

	"insights/internal/core/version"
)

// InstanceName is the swag registry key of the insights document
const InstanceName = "insights"

// Info is the registered document, Version follows the build
var Info = &swag.Spec{
	Version:          version.Info().Version,
	Title:            "Insights API",
	Description:      "Time series and raw event queries over tracked analytics events",
	InfoInstanceName: InstanceName,
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() { swag.Register(Info.InstanceName(), Info) }

const docTemplate = `{
  "openapi": "3.0.3",
  "info": {"title": "{{.Title}}", "description": "{{.Description}}", "version": "{{.Version}}"},
  "paths": {
    "/insights/query": {
      "post": {
        "tags": ["Insights"],
        "summary": "Aggregate events into dense time series",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/QueryDescriptor"}}}},
        "responses": {
          "200": {"description": "one object per bucket, keyed by series name", "content": {"application/json": {"schema": {"type": "array", "items": {"type": "object", "additionalProperties": true}}}}},
          "404": {"description": "unknown insight type", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}},
          "422": {"description": "descriptor cannot be compiled", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}}
        }
      }
    },
    "/insights/events": {
      "post": {
        "tags": ["Insights"],
        "summary": "List raw events newest first",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/EventQueryInput"}}}},
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/EventPage"}}}}
        }
      }
    },
    "/meta/health": {"get": {"tags": ["Meta"], "summary": "Health check", "responses": {"200": {"description": "ok"}}}},
    "/meta/ready": {"get": {"tags": ["Meta"], "summary": "Readiness with backend pings", "responses": {"200": {"description": "ok"}}}},
    "/meta/version": {"get": {"tags": ["Meta"], "summary": "Build info", "responses": {"200": {"description": "ok"}}}},
    "/meta/service": {"get": {"tags": ["Meta"], "summary": "Service info and uptime", "responses": {"200": {"description": "ok"}}}},
    "/meta/backend": {"get": {"tags": ["Meta"], "summary": "Backend answering insights queries", "responses": {"200": {"description": "ok"}}}}
  },
  "components": {
    "schemas": {
      "FilterValue": {"description": "a string, number, boolean, ISO date, or a two element array for range operators"},
      "Metric": {
        "type": "object", "required": ["name", "math"],
        "properties": {"name": {"type": "string"}, "math": {"type": "string", "enum": ["events", "sessions"]}}
      },
      "Filter": {
        "type": "object", "required": ["type", "operator"],
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string", "enum": ["string", "number", "boolean", "date", "array"]},
          "operator": {"type": "string"},
          "value": {"$ref": "#/components/schemas/FilterValue"}
        }
      },
      "CustomGroup": {
        "type": "object", "required": ["filterOperator"],
        "properties": {"filterOperator": {"type": "string"}, "filterValue": {"$ref": "#/components/schemas/FilterValue"}}
      },
      "Group": {
        "type": "object", "required": ["value", "type"],
        "properties": {
          "value": {"type": "string"},
          "type": {"type": "string"},
          "customGroups": {"type": "array", "items": {"$ref": "#/components/schemas/CustomGroup"}}
        }
      },
      "TimeWindow": {
        "type": "object", "required": ["startAt", "endAt"],
        "properties": {
          "startAt": {"type": "string", "format": "date-time"},
          "endAt": {"type": "string", "format": "date-time"},
          "unit": {"type": "string", "enum": ["hour", "day", "week", "month"]},
          "timezone": {"type": "string", "example": "Europe/Berlin"}
        }
      },
      "QueryDescriptor": {
        "type": "object", "required": ["insightId", "insightType", "time"],
        "properties": {
          "insightId": {"type": "string"},
          "insightType": {"type": "string", "enum": ["website", "warehouse"]},
          "metrics": {"type": "array", "items": {"$ref": "#/components/schemas/Metric"}},
          "filters": {"type": "array", "items": {"$ref": "#/components/schemas/Filter"}},
          "groups": {"type": "array", "items": {"$ref": "#/components/schemas/Group"}},
          "time": {"$ref": "#/components/schemas/TimeWindow"}
        }
      },
      "EventQueryInput": {
        "allOf": [
          {"$ref": "#/components/schemas/QueryDescriptor"},
          {"type": "object", "properties": {"cursor": {"type": "string"}, "limit": {"type": "integer", "minimum": 1, "maximum": 500}}}
        ]
      },
      "InsightEvent": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "createdAt": {"type": "string", "format": "date-time"},
          "properties": {"type": "object", "additionalProperties": true}
        }
      },
      "EventPage": {
        "type": "object",
        "properties": {
          "events": {"type": "array", "items": {"$ref": "#/components/schemas/InsightEvent"}},
          "nextCursor": {"type": "string"}
        }
      }
    }
  }
}`
