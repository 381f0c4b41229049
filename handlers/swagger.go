package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the API description endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>facilitydesk - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "facilitydesk", "version": "v1.0.0" },
  "components": {
    "schemas": {
      "Item": { "type": "object", "properties": { "id": {"type":"string"}, "assignees": {"type":"array","items":{"type":"string"}}, "mediaUris": {"type":"array","items":{"type":"string"}} }, "additionalProperties": true },
      "Ids": { "type": "object", "properties": { "ids": {"type":"array","items":{"type":"string"}} } },
      "Result": { "type": "object", "properties": { "success": {"type":"boolean"}, "message": {"type":"string"} } }
    }
  },
  "paths": {
    "/login": {
      "post": {
        "summary": "Authenticate a worker against all institution rosters",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "name, role, institutionId and optional accessToken" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } }
      }
    },
    "/institutions/{institutionId}/maintenance_requests": {
      "get": { "summary": "List open requests", "responses": { "200": { "description": "array of items" } } },
      "post": { "summary": "Submit a request", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Item"}}}}, "responses": { "201": { "description": "created" } } },
      "put": { "summary": "Replace all open requests", "responses": { "200": { "description": "replaced" } } }
    },
    "/institutions/{institutionId}/maintenance_requests/update": {
      "post": { "summary": "Merge updatedItem into the open request with id", "responses": { "200": { "description": "updated" }, "400": { "description": "Invalid id" } } }
    },
    "/institutions/{institutionId}/complete": {
      "post": { "summary": "Move open requests to completed", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Ids"}}}}, "responses": { "200": { "description": "moved" } } }
    },
    "/institutions/{institutionId}/delete": {
      "post": { "summary": "Delete open requests", "responses": { "200": { "description": "deleted" } } }
    },
    "/institutions/{institutionId}/assign": {
      "post": { "summary": "Add workers to the assignees of open requests", "responses": { "200": { "description": "assigned" } } }
    },
    "/institutions/{institutionId}/todo/{itemId}": {
      "put": { "summary": "Replace an open request", "responses": { "200": { "description": "replaced" }, "404": { "description": "not found" } } }
    },
    "/institutions/{institutionId}/completed_maintenance_requests": {
      "get": { "summary": "List completed requests", "responses": { "200": { "description": "array of items" } } }
    },
    "/institutions/{institutionId}/completed_maintenance_requests/reopen": {
      "post": { "summary": "Move completed requests back to open", "responses": { "200": { "description": "moved" } } }
    },
    "/institutions/{institutionId}/completed_maintenance_requests/delete": {
      "post": { "summary": "Delete completed requests", "responses": { "200": { "description": "deleted" } } }
    },
    "/institutions/{institutionId}/completed/{itemId}": {
      "put": { "summary": "Replace a completed request", "responses": { "200": { "description": "replaced" }, "404": { "description": "not found" } } }
    },
    "/institutions/{institutionId}/workers": {
      "get": { "summary": "List the roster", "responses": { "200": { "description": "array of workers" } } },
      "post": { "summary": "Replace the roster", "responses": { "200": { "description": "saved" } } }
    },
    "/institutions/{institutionId}/workers/delete": {
      "post": { "summary": "Remove a worker by username", "responses": { "200": { "description": "removed" }, "404": { "description": "not found" } } }
    },
    "/institutions/{institutionId}/cities": {
      "get": { "summary": "List cities", "responses": { "200": { "description": "array of cities" } } },
      "post": { "summary": "Replace cities", "responses": { "200": { "description": "saved" } } }
    },
    "/institutions/{institutionId}/cities/delete": {
      "post": { "summary": "Remove a city by cityName", "responses": { "200": { "description": "removed" }, "404": { "description": "not found" } } }
    },
    "/institutions/{institutionId}/cities/deleteStreet": {
      "post": { "summary": "Remove one street occurrence", "responses": { "200": { "description": "removed" }, "404": { "description": "not found" } } }
    },
    "/institutions/{institutionId}/last-update": {
      "get": { "summary": "Last write to the request collections", "responses": { "200": { "description": "lastUpdate (ISO) and timestamp (ms), both null when unknown" } } }
    },
    "/institutions/{institutionId}/upload-media": {
      "post": { "summary": "Upload an image or video (multipart field media, optional itemId)", "responses": { "200": { "description": "mediaUrl and filename" }, "413": { "description": "too large" }, "415": { "description": "not image or video" } } }
    },
    "/institutions/{institutionId}/media/{filename}": {
      "get": { "summary": "Download an attachment", "responses": { "200": { "description": "file bytes" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete an attachment (idempotent)", "responses": { "200": { "description": "deleted" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
