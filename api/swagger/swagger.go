package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academy Billing API",
        "description": "Monthly billing reconciliation for multi-academy franchises",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Billing", "description": "Monthly billable students and costs per academy"},
        {"name": "Students", "description": "Student status toggles feeding the status log"},
        {"name": "Academies", "description": "Academies and their pricing policy"},
        {"name": "Users", "description": "Privileged account operations"},
        {"name": "Exports", "description": "Asynchronous CSV, PDF and XLSX billing exports"}
    ],
    "paths": {
        "/admin/billing-stats": {
            "get": {
                "tags": ["Billing"],
                "summary": "Monthly billing statistics",
                "description": "Bare JSON object keyed by academy id. Errors are returned as {\"error\": \"...\"}.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "month", "in": "query", "type": "integer", "required": true, "minimum": 1, "maximum": 12}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/MonthlyBillingReport"}}},
                    "400": {"description": "Invalid year or month", "schema": {"$ref": "#/definitions/PlainError"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/PlainError"}},
                    "403": {"description": "Not a super admin", "schema": {"$ref": "#/definitions/PlainError"}},
                    "503": {"description": "Billing inputs unavailable", "schema": {"$ref": "#/definitions/PlainError"}}
                }
            }
        },
        "/admin/students/{id}/status": {
            "patch": {
                "tags": ["Students"],
                "summary": "Change a student's status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Student belongs to another academy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/students/{id}/status-log": {
            "get": {
                "tags": ["Students"],
                "summary": "Student status history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Student belongs to another academy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/academies": {
            "get": {
                "tags": ["Academies"],
                "summary": "List academies with live counters",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/academies/{id}/pricing": {
            "get": {
                "tags": ["Academies"],
                "summary": "Get academy pricing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Academies"],
                "summary": "Update academy pricing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePricingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Academy not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/{id}/password": {
            "post": {
                "tags": ["Users"],
                "summary": "Reset a user's password",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetPasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "Password updated"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/billing-exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a billing export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BillingExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Exports disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/billing-exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Billing export status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "StudentBillingLine": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "username": {"type": "string"},
                "activeDays": {"type": "integer"},
                "isBillable": {"type": "boolean"},
                "currentStatus": {"type": "string", "enum": ["active", "suspended"]}
            }
        },
        "MonthlyBillingReport": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "totalStudents": {"type": "integer"},
                "billableStudents": {"type": "integer"},
                "totalCost": {"type": "number"},
                "billingType": {"type": "string", "enum": ["per_student", "flat_rate"]},
                "students": {"type": "array", "items": {"$ref": "#/definitions/StudentBillingLine"}}
            }
        },
        "UpdateStudentStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["active", "suspended"]}
            }
        },
        "UpdatePricingRequest": {
            "type": "object",
            "required": ["billingType"],
            "properties": {
                "billingType": {"type": "string", "enum": ["per_student", "flat_rate"]},
                "pricePerStudent": {"type": "number", "minimum": 0},
                "flatRateAmount": {"type": "number", "minimum": 0}
            }
        },
        "ResetPasswordRequest": {
            "type": "object",
            "required": ["newPassword"],
            "properties": {
                "newPassword": {"type": "string", "minLength": 8, "maxLength": 72}
            }
        },
        "BillingExportRequest": {
            "type": "object",
            "required": ["year", "month", "format"],
            "properties": {
                "year": {"type": "integer"},
                "month": {"type": "integer", "minimum": 1, "maximum": 12},
                "format": {"type": "string", "enum": ["csv", "pdf", "xlsx"]}
            }
        },
        "PlainError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
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
