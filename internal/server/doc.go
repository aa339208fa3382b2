// Package server implements the HTTP backend the remote store adapter talks
// to. It is a reference deployment of the row-level-authorized REST contract,
// suitable for local development and integration testing.
//
// # Identity
//
// Every route except the health probe requires a Bearer token. Tokens are
// HS256 JWTs carrying the user id in the subject claim; the middleware
// validates the signature and stashes the identity in the request context.
//
// # Authorization
//
// Rows belong to the user who created them. A request touching another
// user's row gets 403; a row that exists for nobody gets 404. The handlers
// resolve the distinction with an unscoped existence probe after the
// owner-scoped query comes up empty.
//
// # Routes
//
//	GET    /v1/health
//	GET    /v1/lists            POST   /v1/lists
//	GET    /v1/lists/{id}       PUT    /v1/lists/{id}    DELETE /v1/lists/{id}
//	GET    /v1/lists/{id}/items
//	POST   /v1/items            PUT    /v1/items/{id}    DELETE /v1/items/{id}
package server
