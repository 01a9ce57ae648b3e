// Package logging provides structured logging helpers for outlookmcp.
//
// It centralizes slog attribute naming and PII handling: account names
// are logged as-is (they are local configuration labels), user emails are
// hashed before logging, and tokens are never logged beyond their length.
package logging
