package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Account API",
        "description": "Login, token refresh and registration for the SPA client",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Account", "description": "Authentication and registration"},
        {"name": "Client", "description": "SPA route table"}
    ],
    "paths": {
        "/account/login": {
            "post": {
                "tags": ["Account"],
                "summary": "Authenticate user",
                "consumes": ["application/json"],
                "produces": ["application/json", "application/problem+json"],
                "parameters": [
                    {"name": "Accept-Language", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserDto"}},
                    "400": {"description": "Validation problem", "schema": {"$ref": "#/definitions/Problem"}},
                    "401": {"description": "Invalid credentials or inactive account", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        },
        "/account/refresh": {
            "post": {
                "tags": ["Account"],
                "summary": "Refresh tokens",
                "description": "Exchange an access token (expired or not) and its refresh token for a new pair. The presented refresh token is single use.",
                "consumes": ["application/json"],
                "produces": ["application/json", "application/problem+json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserDto"}},
                    "400": {"description": "Validation problem", "schema": {"$ref": "#/definitions/Problem"}},
                    "401": {"description": "Invalid token or refresh token", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        },
        "/account/register": {
            "post": {
                "tags": ["Account"],
                "summary": "Register account",
                "consumes": ["application/json"],
                "produces": ["application/problem+json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Every identity failure keyed by code", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        },
        "/account/me": {
            "get": {
                "tags": ["Account"],
                "summary": "Current principal",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserInfo"}},
                    "401": {"description": "Missing or invalid bearer token", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        },
        "/client/routes": {
            "get": {
                "tags": ["Client"],
                "summary": "List client routes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/ClientRoute"}}}
                }
            }
        },
        "/client/routes/resolve": {
            "get": {
                "tags": ["Client"],
                "summary": "Resolve a client URL",
                "parameters": [
                    {"name": "path", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RouteResolution"}},
                    "404": {"description": "No route matched", "schema": {"$ref": "#/definitions/Problem"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["token", "refreshToken"],
            "properties": {
                "token": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["username", "email", "password"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UserDto": {
            "type": "object",
            "properties": {
                "userName": {"type": "string"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "imageUrl": {"type": "string"},
                "isActive": {"type": "boolean"},
                "token": {"type": "string"},
                "refreshToken": {"type": "string"},
                "refreshTokenExpiryTime": {"type": "string", "format": "date-time"}
            }
        },
        "UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userName": {"type": "string"},
                "email": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ClientRoute": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "pathMatch": {"type": "string"},
                "redirectTo": {"type": "string"},
                "component": {"type": "string"},
                "loadChildren": {"type": "string"},
                "canActivate": {"type": "array", "items": {"type": "string"}},
                "allowedRoles": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RouteResolution": {
            "type": "object",
            "properties": {
                "requestedPath": {"type": "string"},
                "path": {"type": "string"},
                "route": {"$ref": "#/definitions/ClientRoute"},
                "redirects": {"type": "array", "items": {"type": "string"}},
                "denied": {"type": "boolean"},
                "deniedBy": {"type": "string"}
            }
        },
        "Problem": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "code": {"type": "string"},
                "detail": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
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
