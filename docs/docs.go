// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/main.go
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "token"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/telemetry": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["telemetry"],
                "summary": "Current telemetry snapshot",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Snapshot"}}, "401": {"description": "Unauthorized"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["telemetry"],
                "summary": "Chart history",
                "responses": {"200": {"description": "capacity, count, points"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/tree": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["telemetry"],
                "summary": "Parameter tree",
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Node paths to expand", "name": "expand", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Node paths to collapse", "name": "collapse", "in": "query"}
                ],
                "responses": {"200": {"description": "revision, rows"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["telemetry"],
                "summary": "Sync now",
                "responses": {"200": {"description": "status, snapshot"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/api/v1/settings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Get settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Settings"}}, "401": {"description": "Unauthorized"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Update settings",
                "parameters": [{"description": "Settings patch", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateSettingsRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Settings"}}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/reset": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Reset",
                "parameters": [{"type": "boolean", "description": "Must be true", "name": "confirm", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "Sync journal",
                "parameters": [
                    {"type": "string", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range", "name": "to", "in": "query"},
                    {"enum": ["info", "success", "warning", "error"], "type": "string", "description": "Entry severity", "name": "severity", "in": "query"}
                ],
                "responses": {"200": {"description": "count, entries"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/logs/recent": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "Recent sync log",
                "responses": {"200": {"description": "count, entries"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/ws": {
            "get": {
                "tags": ["telemetry"],
                "summary": "Snapshot stream",
                "parameters": [
                    {"type": "string", "description": "Push period, Go duration", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Push period in milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "handlers.UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "base_url": {"type": "string", "example": "http://192.168.0.25:8080"},
                "mock_mode": {"type": "boolean", "example": true},
                "refresh_interval": {"type": "integer", "example": 10}
            }
        },
        "models.Settings": {
            "type": "object",
            "properties": {
                "base_url": {"type": "string"},
                "mock_mode": {"type": "boolean"},
                "refresh_interval": {"type": "integer"}
            }
        },
        "models.ParamNode": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "value": {"type": "number"},
                "unit": {"type": "string"},
                "children": {"type": "array", "items": {"$ref": "#/definitions/models.ParamNode"}}
            }
        },
        "models.Snapshot": {
            "type": "object",
            "properties": {
                "taken_at": {"type": "string"},
                "source": {"type": "string"},
                "metrics": {"type": "object", "additionalProperties": {"type": "number"}},
                "tree": {"type": "array", "items": {"$ref": "#/definitions/models.ParamNode"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ETA Monitor API",
	Description:      "Telemetry, parameter tree and sync control for an ETA heating controller.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
