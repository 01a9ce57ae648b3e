// Package tokencache persists per-account OAuth token material in a
// single JSON file under the user cache directory.
package tokencache
