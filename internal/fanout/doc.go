// Package fanout executes one logical operation across the configured
// accounts and aggregates the heterogeneous per-account results.
//
// Execution is settle-all: every account's operation runs to completion
// regardless of sibling failures, and results come back in registry
// order. Aggregation distinguishes the single-account shape (unwrapped,
// failure re-raised) from the multi-account shape (labeled blocks,
// failures inline, never fails as a whole).
package fanout
