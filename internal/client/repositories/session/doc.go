// Package session implements the durable storage behind the client session:
// a single sqlite table of key/value pairs holding the access token, the
// refresh token and the serialized identity.
//
// The table is created by the embedded goose migrations (see
// internal/client/migrations). Repositories accept a dbx.DBTX so the same
// code runs against *sql.DB or inside dbx.WithTx when several keys must be
// written atomically.
package session
