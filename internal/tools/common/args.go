package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"outlookmcp/internal/instrumentation"
	"outlookmcp/internal/logging"
	"outlookmcp/internal/server"
)

// AccountFromArgs extracts the account name from request arguments.
// An empty string means the tool targets every configured account.
func AccountFromArgs(args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok {
		return accountVal
	}
	return ""
}

// StringArg returns a string argument or the given default when absent.
func StringArg(args map[string]interface{}, key, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// IntArg returns a numeric argument or the given default when absent.
// JSON numbers arrive as float64.
func IntArg(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	return defaultValue
}

// StringSliceArg returns a string-array argument. A bare string is
// accepted as a single-element slice.
func StringSliceArg(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Instrumented wraps a tool handler so every invocation is logged and
// recorded in the metrics pipeline. A handler error or an error-flagged
// result both count as failures.
func Instrumented(sc *server.ServerContext, toolName string, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}

		slog.Debug("tool invocation finished",
			logging.Tool(toolName),
			logging.Status(status),
			slog.Duration("duration", time.Since(start)))

		if metrics := sc.Metrics(); metrics != nil {
			account := AccountFromArgs(request.GetArguments())
			metrics.RecordToolInvocation(ctx, toolName, status, account, time.Since(start))
		}
		return result, err
	}
}
