// Package logging provides structured logging for ascrm, built on log/slog.
//
// Log output is JSON by default (machine-readable for production) with a
// text mode for local development. Every logger carries service and
// version attributes so multi-process deployments can be told apart.
//
// Credentials and session tokens must never be logged. Handlers log user
// IDs and request IDs only.
package logging
