// Package cli provides the interactive procurement command-line client.
//
// It wires configuration, the local session database, the API client and an
// interactive REPL. Typical flow: restore or prompt for a session, show the
// role's dashboard, start a background auto-refresh, and execute user
// commands.
//
// Key features:
//   - Login / Logout / Whoami
//   - Dashboard listing with a status filter
//   - Request details with approval history, purchase order and receipt
//     validation
//   - Create and edit requests, approve / reject, attach receipts
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartAutoRefresh, and runREPL for details.
package cli
