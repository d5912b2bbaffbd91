package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Personnel API",
        "description": "Personnel directory, account linkage and provisioning backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Teachers", "description": "Teacher directory store"},
        {"name": "Users", "description": "Authentication account store"},
        {"name": "Personnel", "description": "Unified view, linkage pools and export"}
    ],
    "paths": {
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teacher directory records",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "linked", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher directory record",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get teacher directory record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Record no longer exists"}
                }
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Update teacher directory record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Record no longer exists"}
                }
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Delete teacher directory record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Record no longer exists"}
                }
            }
        },
        "/teachers/{id}/link-user": {
            "post": {
                "tags": ["Teachers"],
                "summary": "Bind a teacher record to an account",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Linked"},
                    "404": {"description": "Record no longer exists"},
                    "409": {"description": "Already linked or account not eligible"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "linked", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Provision an account",
                "description": "When no password is supplied a temporary credential is generated and returned exactly once.",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"},
                    "409": {"description": "Username already exists"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get account detail",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Record no longer exists"}
                }
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update account",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Record no longer exists"},
                    "409": {"description": "Username already exists"}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete account",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Record no longer exists"}
                }
            }
        },
        "/users/{id}/reset-password": {
            "patch": {
                "tags": ["Users"],
                "summary": "Reissue a one-time credential",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Fresh credential, returned exactly once"},
                    "404": {"description": "Record no longer exists"}
                }
            }
        },
        "/personnel": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Unified personnel view",
                "parameters": [{"name": "roles", "in": "query", "type": "string"}],
                "responses": {
                    "200": {"description": "One entry per person"}
                }
            }
        },
        "/personnel/eligible-teachers": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Directory records eligible for linking",
                "parameters": [{"name": "search", "in": "query", "type": "string"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/personnel/eligible-accounts": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Accounts eligible for linking",
                "parameters": [{"name": "search", "in": "query", "type": "string"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/personnel/export": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Export the staff roster",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string"},
                    {"name": "roles", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV or PDF attachment"},
                    "400": {"description": "Unsupported format"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
