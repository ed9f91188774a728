// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AuthResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.FailureResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.FailureResult"}}
                }
            }
        },
        "/api/auth/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ProfileResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.FailureResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.FailureResult"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh tokens",
                "parameters": [
                    {"type": "string", "description": "Refresh token", "name": "Refresh-Token", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AuthResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.FailureResult"}}
                }
            }
        },
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AuthResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.FailureResult"}}
                }
            }
        },
        "/api/auth/upgrade-to-vendor": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Upgrade to vendor",
                "parameters": [
                    {"description": "Shop details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.vendorUpgradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ProfileResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.FailureResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.FailureResult"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.FailureResult"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AuthPayload": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "refreshToken": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.Profile"}
            }
        },
        "domain.AuthResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/domain.AuthPayload"}
            }
        },
        "domain.FailureResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "domain.Profile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["REGULAR", "VENDOR"]},
                "vendor": {"$ref": "#/definitions/domain.VendorProfile"}
            }
        },
        "domain.ProfileResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/domain.Profile"}
            }
        },
        "domain.VendorProfile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "shopName": {"type": "string"},
                "businessAddress": {"type": "string"},
                "phoneNumber": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string", "minLength": 6}
            }
        },
        "handler.vendorUpgradeRequest": {
            "type": "object",
            "required": ["businessAddress", "phoneNumber", "shopName"],
            "properties": {
                "businessAddress": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "shopName": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Marketplace Account API",
	Description:      "Registration, login, profile, vendor upgrade and token refresh.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
