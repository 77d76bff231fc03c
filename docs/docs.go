// Package docs holds the OpenAPI document served at /swagger when the server
// is built with -tags=swagger. Regenerate with `swag init -g cmd/exporthub/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "exporthub maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Full catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CatalogResponse"}}
                }
            }
        },
        "/api/models/{organization}/{modelID}": {
            "get": {
                "description": "Looks up <configs>/<organization>/<modelID>.json. Identity fields inside other cards do not affect this lookup.",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Get a model card",
                "parameters": [
                    {"type": "string", "description": "Organization folder", "name": "organization", "in": "path", "required": true},
                    {"type": "string", "description": "Card file name without .json", "name": "modelID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelCard"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/organizations": {
            "get": {
                "description": "Top-level folder names under the configs root, sorted.",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List organizations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.OrganizationsResponse"}}
                }
            }
        },
        "/api/organizations/{organization}/models": {
            "get": {
                "description": "Cards stored in the folder come first, then cards claimed from other folders. With limit, only the first entries are returned.",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Models of an organization",
                "parameters": [
                    {"type": "string", "description": "Organization", "name": "organization", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum number of models (positive)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.OrganizationModelsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/scan": {
            "get": {
                "description": "Folder and file counts, skipped files with reasons, and notices such as duplicate model ids.",
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Scan report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ScanReport"}}
                }
            }
        }
    },
    "definitions": {
        "types.CatalogResponse": {
            "type": "object",
            "properties": {
                "organizations": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/types.ModelCard"}}
                }
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 404},
                "error": {"type": "string", "example": "model card not found: Acme/widget"}
            }
        },
        "types.ModelCard": {
            "type": "object",
            "additionalProperties": true,
            "properties": {
                "config_path": {"type": "string", "example": "/srv/configs/DeepChem/ChemBERTa-100M-MLM.json"},
                "filename_id": {"type": "string", "example": "ChemBERTa-100M-MLM"},
                "model_id": {"type": "string", "example": "ChemBERTa-100M-MLM"},
                "organization": {"type": "string", "example": "DeepChem"}
            }
        },
        "types.OrganizationModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelCard"}},
                "organization": {"type": "string", "example": "Acme"}
            }
        },
        "types.OrganizationsResponse": {
            "type": "object",
            "properties": {
                "organizations": {"type": "array", "items": {"type": "string"}, "example": ["Acme", "Globex"]}
            }
        },
        "types.ScanReport": {
            "type": "object",
            "properties": {
                "cached": {"type": "boolean"},
                "cards": {"type": "integer"},
                "duration_ms": {"type": "integer"},
                "files_scanned": {"type": "integer"},
                "folders": {"type": "integer"},
                "id": {"type": "string"},
                "notices": {"type": "array", "items": {"type": "string"}},
                "root": {"type": "string"},
                "root_exists": {"type": "boolean"},
                "skipped": {"type": "array", "items": {"$ref": "#/definitions/types.SkippedFile"}},
                "started_unix_ms": {"type": "integer"}
            }
        },
        "types.SkippedFile": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "organization": {"type": "string", "example": "Acme"},
                "path": {"type": "string", "example": "/srv/configs/Acme/bad.json"},
                "reason": {"type": "string", "example": "parse"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "exporthub API",
	Description:      "Browse and fetch exported model cards grouped by organization.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
