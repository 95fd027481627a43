// Package docs holds the OpenAPI description served at /api/swagger.json.
// It is maintained by hand alongside the @ annotations on the engine handlers.
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
        "/convert": {
            "post": {
                "description": "Renders every page of the uploaded PDF at 1.5x scale and holds the images in the session, replacing any previous result. A conversion already running in the same session is cancelled.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Conversion"],
                "summary": "Convert a PDF to images",
                "parameters": [
                    {"type": "file", "description": "PDF document", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Output format: jpeg, png or webp", "name": "format", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Converted pages", "schema": {"$ref": "#/definitions/engine.ResultSummary"}},
                    "400": {"description": "Missing file or unsupported format", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}},
                    "409": {"description": "Cancelled by a newer upload or a clear", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}},
                    "422": {"description": "Unreadable file", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}},
                    "500": {"description": "Render failure", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}}
                }
            }
        },
        "/result": {
            "get": {
                "description": "Returns the pages held by this session, or 204 when nothing has been converted",
                "produces": ["application/json"],
                "tags": ["Conversion"],
                "summary": "Get the current result",
                "responses": {
                    "200": {"description": "Converted pages", "schema": {"$ref": "#/definitions/engine.ResultSummary"}},
                    "204": {"description": "No result"}
                }
            },
            "delete": {
                "description": "Drops the session's pages from memory and cancels any conversion in flight",
                "tags": ["Conversion"],
                "summary": "Discard the current result",
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/pages/{index}": {
            "get": {
                "description": "Returns page {index} (1-based) as page-{index}.{ext}. Pass inline=true to display it instead of downloading.",
                "produces": ["image/jpeg", "image/png", "image/webp"],
                "tags": ["Export"],
                "summary": "Download a page image",
                "parameters": [
                    {"type": "integer", "description": "1-based page number", "name": "index", "in": "path", "required": true},
                    {"type": "boolean", "description": "Serve inline for preview", "name": "inline", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Page image", "schema": {"type": "file"}},
                    "404": {"description": "No such page", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}}
                }
            }
        },
        "/export": {
            "get": {
                "description": "Packs every converted page into pdf-pages.zip with entries page-1.ext to page-N.ext. Returns 204 when there is nothing to export.",
                "produces": ["application/zip"],
                "tags": ["Export"],
                "summary": "Download all pages as a zip",
                "responses": {
                    "200": {"description": "Zip archive", "schema": {"type": "file"}},
                    "204": {"description": "Nothing to export"},
                    "500": {"description": "Archive assembly failed", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}}
                }
            }
        },
        "/formats": {
            "get": {
                "description": "Returns the label, identifier and extension of every supported image format",
                "produces": ["application/json"],
                "tags": ["Conversion"],
                "summary": "List output formats",
                "responses": {
                    "200": {"description": "Supported formats", "schema": {"type": "array", "items": {"$ref": "#/definitions/engine.FormatInfo"}}}
                }
            }
        },
        "/jobs": {
            "get": {
                "description": "Retrieve this session's recent jobs and the housekeeping runs, newest first, optionally filtered by type",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Get recent jobs",
                "parameters": [
                    {"type": "integer", "description": "Number of jobs to return (default: 20, max: 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset for pagination (default: 0)", "name": "offset", "in": "query"},
                    {"type": "string", "description": "Only jobs of this type: conversion, export or cleanup", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "List of jobs", "schema": {"type": "array", "items": {"$ref": "#/definitions/database.Job"}}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}}
                }
            }
        },
        "/jobs/active": {
            "get": {
                "description": "Retrieve this session's jobs that are currently running or pending",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Get active jobs",
                "responses": {
                    "200": {"description": "List of active jobs", "schema": {"type": "array", "items": {"$ref": "#/definitions/database.Job"}}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "description": "Retrieve details of a conversion, export or cleanup job. Jobs of other browser sessions are not found.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Get job by ID",
                "parameters": [
                    {"type": "string", "description": "Job ID (ULID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Job details", "schema": {"$ref": "#/definitions/database.Job"}},
                    "400": {"description": "Invalid job ID", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/engine.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports the renderer, encoder support and live session count",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Health information", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "database.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "status": {"type": "string"},
                "progress": {"type": "integer"},
                "currentStep": {"type": "string"},
                "totalSteps": {"type": "integer"},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "result": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "startedAt": {"type": "string"},
                "completedAt": {"type": "string"}
            }
        },
        "engine.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "stage": {"type": "string"},
                "reason": {"type": "string"},
                "page": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "engine.FormatInfo": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "identifier": {"type": "string"},
                "extension": {"type": "string"},
                "mimeType": {"type": "string"},
                "default": {"type": "boolean"},
                "available": {"type": "boolean"}
            }
        },
        "engine.PageSummary": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "name": {"type": "string"},
                "format": {"type": "string"},
                "contentType": {"type": "string"},
                "width": {"type": "integer"},
                "height": {"type": "integer"},
                "bytes": {"type": "integer"},
                "url": {"type": "string"},
                "previewURL": {"type": "string"}
            }
        },
        "engine.ResultSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "format": {"type": "string"},
                "label": {"type": "string"},
                "sourceName": {"type": "string"},
                "renderer": {"type": "string"},
                "pageCount": {"type": "integer"},
                "totalBytes": {"type": "integer"},
                "createdAt": {"type": "string"},
                "exportURL": {"type": "string"},
                "jobId": {"type": "string"},
                "pages": {"type": "array", "items": {"$ref": "#/definitions/engine.PageSummary"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "pdfpages API",
	Description:      "Converts PDF documents into one image per page, locally and in memory.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
