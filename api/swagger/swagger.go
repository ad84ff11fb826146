package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Seasonal Upkeep API",
        "description": "Maintenance scheduling for seasonal decoration inventory",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Templates", "description": "Recurring maintenance templates and their application"},
        {"name": "Records", "description": "Maintenance record lifecycle"},
        {"name": "Items", "description": "Inventory items and default template application"},
        {"name": "Maintenance", "description": "Filtered maintenance view and rollup exports"}
    ],
    "paths": {
        "/templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List schedule templates",
                "parameters": [
                    {"name": "classType", "in": "query", "type": "string"},
                    {"name": "taskKind", "in": "query", "type": "string", "enum": ["repair", "maintenance", "inspection"]},
                    {"name": "enabled", "in": "query", "type": "boolean"},
                    {"name": "isDefault", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Templates"],
                "summary": "Create schedule template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TemplateDraft"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/validate": {
            "post": {
                "tags": ["Templates"],
                "summary": "Validate a template draft without saving it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TemplateDraft"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/templates/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get schedule template",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Templates"],
                "summary": "Update schedule template",
                "description": "Title, description and cost changes are copied to scheduled records generated from the template. Disabling cancels them.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TemplateDraft"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Templates"],
                "summary": "Delete schedule template",
                "description": "Cancels scheduled and in-progress generated records; completed history is kept.",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/templates/{id}/apply": {
            "post": {
                "tags": ["Templates"],
                "summary": "Apply a template to items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyTemplateRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/templates/{id}/next-due": {
            "get": {
                "tags": ["Templates"],
                "summary": "Preview upcoming due dates of a template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "count", "in": "query", "type": "integer", "minimum": 1, "maximum": 24}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/records": {
            "get": {
                "tags": ["Records"],
                "summary": "List all maintenance records",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Records"],
                "summary": "Create maintenance record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRecordRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/records/{id}": {
            "get": {
                "tags": ["Records"],
                "summary": "Get maintenance record",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Records"],
                "summary": "Update maintenance record",
                "description": "Completed records are immutable.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Record is completed or transition is not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Records"],
                "summary": "Delete maintenance record",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/items": {
            "get": {
                "tags": ["Items"],
                "summary": "List items",
                "parameters": [
                    {"name": "season", "in": "query", "type": "string", "enum": ["Halloween", "Christmas", "Shared"]},
                    {"name": "classType", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/items/{id}": {
            "get": {
                "tags": ["Items"],
                "summary": "Get item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/items/{id}/records": {
            "get": {
                "tags": ["Records"],
                "summary": "List maintenance records of an item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/items/{id}/apply-defaults": {
            "post": {
                "tags": ["Items"],
                "summary": "Queue application of default templates to an item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/maintenance/view": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Filtered maintenance view",
                "parameters": [
                    {"name": "tab", "in": "query", "type": "string", "enum": ["all", "repairs", "maintenance", "inspections", "items"]},
                    {"name": "season", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "recordType", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "status", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "criticality", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "itemId", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string", "format": "date"},
                    {"name": "dateTo", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/maintenance/export": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Export per-item rollups",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "Rendered file", "schema": {"type": "file"}}}
            }
        },
        "/metrics/summary": {
            "get": {
                "summary": "Aggregated service counters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "TemplateDraft": {
            "type": "object",
            "properties": {
                "classType": {"type": "string"},
                "taskKind": {"type": "string", "enum": ["repair", "maintenance", "inspection"]},
                "category": {"type": "string"},
                "shortName": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "frequency": {"type": "string", "enum": ["annual", "seasonal", "quarterly", "monthly", "pre_season", "post_season"]},
                "season": {"type": "string"},
                "startDate": {"type": "string", "format": "date"},
                "isDefault": {"type": "boolean"},
                "enabled": {"type": "boolean"},
                "estimatedCost": {"type": "string"},
                "estimatedDurationMinutes": {"type": "integer"},
                "daysBeforeReminder": {"type": "integer"}
            }
        },
        "ApplyTemplateRequest": {
            "type": "object",
            "required": ["itemIds"],
            "properties": {
                "itemIds": {"type": "array", "items": {"type": "string"}},
                "startDate": {"type": "string", "format": "date"}
            }
        },
        "CreateRecordRequest": {
            "type": "object",
            "required": ["itemId", "recordType", "title"],
            "properties": {
                "itemId": {"type": "string"},
                "recordType": {"type": "string", "enum": ["repair", "maintenance", "inspection"]},
                "status": {"type": "string", "enum": ["scheduled", "in_progress", "completed", "cancelled"]},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "criticality": {"type": "string", "enum": ["low", "medium", "high"]},
                "datePerformed": {"type": "string", "format": "date"},
                "dateScheduled": {"type": "string", "format": "date"},
                "performedBy": {"type": "string"},
                "estimatedCompletionDate": {"type": "string", "format": "date"},
                "totalCost": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
