// Package client contains client-side building blocks for Notico.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) to talk
//     to the authoritative server: Ping, the batched Sync exchange, and the
//     bootstrap pulls.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that maps
//     transport failures to sentinel errors so the coordinator can tell
//     "never reached the server" apart from per-operation failures.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     wiring the SQLite replica and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrBadStatus, ErrLocalDataNotAvailable.
// Both transport sentinels abort a sync cycle with the outbox intact.
package client
