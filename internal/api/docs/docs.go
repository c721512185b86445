// Package docs holds the OpenAPI document served by the Swagger UI. It mirrors
// the godoc annotations on the handlers in package api.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Service banner",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.RootResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports rate store reachability and the date of the last stored snapshot. Always returns 200.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.HealthResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Health check (liveness)",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "All dependencies ready", "schema": {"$ref": "#/definitions/api.ReadyResponse"}},
                    "503": {"description": "At least one dependency unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/latest": {
            "get": {
                "description": "Returns the latest daily rates snapshot, optionally rebased to another currency.",
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Latest exchange rates",
                "parameters": [
                    {"maxLength": 3, "minLength": 3, "type": "string", "description": "Base currency code", "name": "base", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.RatesResponse"}},
                    "400": {"description": "Invalid base currency", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Unknown base currency", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "No rates available yet", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/convert": {
            "get": {
                "description": "Converts an amount between two currencies using the latest snapshot.",
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Convert an amount",
                "parameters": [
                    {"maxLength": 3, "minLength": 3, "type": "string", "description": "Source currency code", "name": "from", "in": "query", "required": true},
                    {"maxLength": 3, "minLength": 3, "type": "string", "description": "Target currency code", "name": "to", "in": "query", "required": true},
                    {"type": "string", "description": "Non-negative decimal amount", "name": "amount", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.ConversionResponse"}},
                    "400": {"description": "Invalid parameter", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Currency not found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "No rates available yet", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/updates/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["updates"],
                "summary": "Get the latest rate update run",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.UpdateRunResponse"}},
                    "404": {"description": "No runs recorded", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/updates/{id}": {
            "get": {
                "description": "Returns the journal record of one rate update run.",
                "produces": ["application/json"],
                "tags": ["updates"],
                "summary": "Get a rate update run",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Run ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.UpdateRunResponse"}},
                    "400": {"description": "Invalid run ID", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid parameter: from must be a three-letter currency code"}
            }
        },
        "api.RootResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "service": {"type": "string", "example": "Currency Converter API"},
                "version": {"type": "string", "example": "1.0.0"},
                "endpoints": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "redis": {"type": "string", "example": "healthy"},
                "last_update": {"type": "string", "example": "2024-12-04"}
            }
        },
        "api.ReadyResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ready"}
            }
        },
        "api.RatesResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2024-12-04"},
                "base": {"type": "string", "example": "EUR"},
                "rates": {"type": "object", "additionalProperties": {"type": "number"}}
            }
        },
        "api.ConversionResponse": {
            "type": "object",
            "properties": {
                "from": {"type": "string", "example": "USD"},
                "to": {"type": "string", "example": "JPY"},
                "amount": {"type": "number", "example": 100},
                "result": {"type": "number", "example": 15066.67},
                "rate": {"type": "number", "example": 150.6667},
                "date": {"type": "string", "example": "2024-12-04"}
            }
        },
        "api.UpdateRunResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "trigger": {"type": "string", "example": "schedule"},
                "status": {"type": "string", "example": "STORED"},
                "rates_date": {"type": "string", "example": "2024-12-04"},
                "currencies": {"type": "integer", "example": 30},
                "error": {"type": "string", "example": "failed to fetch rates feed: unexpected status 503"},
                "started_at": {"type": "string", "example": "2024-12-04T15:00:00Z"},
                "finished_at": {"type": "string", "example": "2024-12-04T15:00:01Z"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FX Rates API",
	Description:      "Daily foreign exchange rates and currency conversion backed by the ECB reference feed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
