// Package config loads the outlookmcp configuration manifest and exposes
// the immutable account registry.
//
// Configuration has two shapes: a YAML manifest listing accounts and the
// callback server settings, or (for backwards compatibility) discrete
// OUTLOOK_* environment variables synthesized into a single account named
// "Default". Validation happens at load time and failures are fatal.
package config
