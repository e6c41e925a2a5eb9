// Package client contains the transport side of the procurement client.
//
// # Overview
//
// The package provides:
//  1. An API contract (see the Client interface): Login, List, Get, Create,
//     Update, Approve, Reject and UploadReceipt.
//  2. A concrete HTTP implementation (see HTTPClient) that attaches the
//     access token from durable storage to every call except login, tags each
//     call with an X-Request-ID, and hands 401 responses to an
//     UnauthorizedHandler so an expired session forces re-authentication.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError. Common conditions can be
// matched with errors.Is: ErrUnauthorized, ErrForbidden, ErrNotFound.
// Transport failures wrap ErrUnavailable. Nothing is retried.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and deadlines.
package client
