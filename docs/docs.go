// Package docs holds the swagger document served at /swagger. Regenerate
// with `swag init -g cmd/server/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "AdminKey": {"type": "apiKey", "name": "X-Admin-Key", "in": "header"}
    },
    "paths": {
        "/healthz": {
            "get": {
                "summary": "Health check",
                "produces": ["application/json"],
                "tags": ["system"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/categories": {
            "get": {
                "summary": "List categories",
                "produces": ["application/json"],
                "tags": ["complaints"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/complaints": {
            "get": {
                "summary": "List complaints",
                "produces": ["application/json"],
                "tags": ["complaints"],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Submit a complaint",
                "produces": ["application/json"],
                "tags": ["complaints"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/complaints/{id}": {
            "get": {
                "summary": "Complaint details",
                "produces": ["application/json"],
                "tags": ["complaints"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/complaints/{id}/upvote": {
            "post": {
                "summary": "Upvote a complaint",
                "produces": ["application/json"],
                "tags": ["complaints"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/users/{id}/complaints": {
            "get": {
                "summary": "Complaints of one user",
                "produces": ["application/json"],
                "tags": ["complaints"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/rewrite": {
            "post": {
                "summary": "Preview the formal rewrite of a complaint",
                "produces": ["application/json"],
                "tags": ["complaints"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/stats": {
            "get": {
                "summary": "Dashboard statistics",
                "produces": ["application/json"],
                "tags": ["admin"],
                "security": [{"AdminKey": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/clusters": {
            "get": {
                "summary": "Largest clusters",
                "produces": ["application/json"],
                "tags": ["admin"],
                "security": [{"AdminKey": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/clusters/{id}": {
            "get": {
                "summary": "Cluster with its latest members",
                "produces": ["application/json"],
                "tags": ["admin"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "security": [{"AdminKey": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/trending": {
            "get": {
                "summary": "Trending clusters",
                "produces": ["application/json"],
                "tags": ["admin"],
                "security": [{"AdminKey": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/severity/explain": {
            "post": {
                "summary": "Explain the severity of a text",
                "produces": ["application/json"],
                "tags": ["admin"],
                "security": [{"AdminKey": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/import": {
            "post": {
                "summary": "Import complaints from CSV",
                "produces": ["application/json"],
                "tags": ["admin"],
                "security": [{"AdminKey": []}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo is read by gin-swagger through swag.Register.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Campus Complaint Portal API",
	Description:      "Complaint intake with severity scoring, similarity clustering and an admin dashboard",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
