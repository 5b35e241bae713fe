package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func errorSchemaRef() map[string]any {
	return map[string]any{"$ref": "#/components/schemas/Error"}
}

func jsonContent(schema map[string]any) map[string]any {
	return map[string]any{"application/json": map[string]any{"schema": schema}}
}

func resp(desc string, schema map[string]any) map[string]any {
	return map[string]any{"description": desc, "content": jsonContent(schema)}
}

// OpenAPIJSON serves an OpenAPI v3 document describing the task API.
func OpenAPIJSON(c *gin.Context) {
	taskRef := map[string]any{"$ref": "#/components/schemas/Task"}
	credentials := map[string]any{"$ref": "#/components/schemas/Credentials"}
	session := map[string]any{"$ref": "#/components/schemas/Session"}
	message := map[string]any{"$ref": "#/components/schemas/Message"}
	idParam := map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "string"}}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Taskboard API",
			"version": "1.0.0",
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
			"schemas": map[string]any{
				"Task": map[string]any{"type": "object", "additionalProperties": true, "properties": map[string]any{
					"id":          map[string]any{"type": "string"},
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"priority":    map[string]any{"type": "string", "enum": []any{"Low", "Medium", "High"}},
					"userEmail":   map[string]any{"type": "string"},
					"completed":   map[string]any{"type": "boolean"},
				}},
				"NewTask": map[string]any{"type": "object", "required": []string{"title", "description", "priority", "userEmail"}, "properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"priority":    map[string]any{"type": "string"},
					"userEmail":   map[string]any{"type": "string"},
				}},
				"Credentials": map[string]any{"type": "object", "required": []string{"email", "password"}, "properties": map[string]any{
					"email":    map[string]any{"type": "string", "format": "email"},
					"password": map[string]any{"type": "string", "format": "password"},
				}},
				"Session": map[string]any{"type": "object", "properties": map[string]any{
					"message":   map[string]any{"type": "string"},
					"token":     map[string]any{"type": "string"},
					"expiresAt": map[string]any{"type": "string", "format": "date-time"},
					"user": map[string]any{"type": "object", "properties": map[string]any{
						"id":    map[string]any{"type": "string"},
						"email": map[string]any{"type": "string"},
					}},
				}},
				"Message": map[string]any{"type": "object", "properties": map[string]any{
					"message": map[string]any{"type": "string"},
				}},
				"Error": map[string]any{"type": "object", "properties": map[string]any{
					"message": map[string]any{"type": "string"},
					"error":   map[string]any{"type": "string"},
				}},
			},
		},
		"paths": map[string]any{
			"/api/auth/register": map[string]any{"post": map[string]any{
				"summary":     "Create an account and sign in",
				"requestBody": map[string]any{"required": true, "content": jsonContent(credentials)},
				"responses": map[string]any{
					"201": resp("Registered", session),
					"400": resp("Malformed email or weak password", errorSchemaRef()),
					"409": resp("Email already in use", errorSchemaRef()),
				},
			}},
			"/api/auth/login": map[string]any{"post": map[string]any{
				"summary":     "Sign in",
				"requestBody": map[string]any{"required": true, "content": jsonContent(credentials)},
				"responses": map[string]any{
					"200": resp("Signed in", session),
					"401": resp("Invalid email or password", errorSchemaRef()),
				},
			}},
			"/api/auth/logout": map[string]any{"post": map[string]any{
				"summary":   "Revoke the bearer token",
				"security":  []any{map[string]any{"bearerAuth": []any{}}},
				"responses": map[string]any{"200": resp("Logged out", message)},
			}},
			"/api/auth/session": map[string]any{"get": map[string]any{
				"summary":  "Current user",
				"security": []any{map[string]any{"bearerAuth": []any{}}},
				"responses": map[string]any{
					"200": map[string]any{"description": "Signed-in user"},
					"401": resp("No valid session", errorSchemaRef()),
				},
			}},
			"/api/tasks": map[string]any{
				"post": map[string]any{
					"summary": "Create a task",
					"parameters": []any{map[string]any{
						"name": "Idempotency-Key", "in": "header", "required": false,
						"description": "Replays the first successful response for 24h.",
						"schema":      map[string]any{"type": "string"},
					}},
					"requestBody": map[string]any{"required": true, "content": jsonContent(map[string]any{"$ref": "#/components/schemas/NewTask"})},
					"responses": map[string]any{
						"201": resp("Created", taskRef),
						"400": resp("Missing fields", errorSchemaRef()),
						"409": resp("Same Idempotency-Key still in progress", errorSchemaRef()),
						"500": resp("Store failure", errorSchemaRef()),
					},
				},
				"get": map[string]any{
					"summary":    "List an owner's tasks",
					"parameters": []any{map[string]any{"name": "userEmail", "in": "query", "required": true, "schema": map[string]any{"type": "string"}}},
					"responses": map[string]any{
						"200": resp("Tasks", map[string]any{"type": "array", "items": taskRef}),
						"400": resp("Missing userEmail", errorSchemaRef()),
					},
				},
			},
			"/api/tasks/{id}": map[string]any{
				"patch": map[string]any{
					"summary":     "Merge fields into a task",
					"parameters":  []any{idParam},
					"requestBody": map[string]any{"required": true, "content": jsonContent(map[string]any{"type": "object", "additionalProperties": true})},
					"responses": map[string]any{
						"200": resp("Updated", map[string]any{"type": "object", "properties": map[string]any{
							"message": map[string]any{"type": "string"},
							"task":    taskRef,
						}}),
						"400": resp("Bad id or body", errorSchemaRef()),
						"500": resp("Store failure, including unknown id", errorSchemaRef()),
					},
				},
				"delete": map[string]any{
					"summary":    "Delete a task",
					"parameters": []any{idParam},
					"responses": map[string]any{
						"200": resp("Deleted", message),
						"400": resp("Missing id", errorSchemaRef()),
						"500": resp("Store failure, including unknown id", errorSchemaRef()),
					},
				},
			},
		},
	}
	c.JSON(http.StatusOK, spec)
}
