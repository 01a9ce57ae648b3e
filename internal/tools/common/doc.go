// Package common holds helpers shared by the tool packages: request
// argument extraction and metrics instrumentation for tool handlers.
package common
