// Package instrumentation configures OpenTelemetry metrics and tracing
// for the server. Metrics cover MCP tool invocations, Microsoft Graph
// API operations, and OAuth authentication and refresh outcomes.
// Exporters are selected via environment variables; Prometheus is the
// default for metrics and tracing is off unless requested.
package instrumentation
