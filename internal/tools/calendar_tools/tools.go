package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"outlookmcp/internal/fanout"
	"outlookmcp/internal/graph"
	"outlookmcp/internal/server"
	"outlookmcp/internal/tools/common"
)

// RegisterCalendarTools registers all calendar tools with the MCP server.
// Write operations are only registered when readOnly is false.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List upcoming calendar events. Without an account, queries every configured account."),
		mcp.WithString("account",
			mcp.Description("Account name (default: all configured accounts)"),
		),
		mcp.WithNumber("days",
			mcp.Description("Number of days to look ahead from now (default: 7)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events per account (default: 10)"),
		),
	)
	s.AddTool(listTool, common.Instrumented(sc, "calendar_list_events", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListEvents(ctx, request, sc)
	}))

	if !readOnly {
		createTool := mcp.NewTool("calendar_create_event",
			mcp.WithDescription("Create a calendar event in a specific account"),
			mcp.WithString("account",
				mcp.Required(),
				mcp.Description("Account name that owns the calendar"),
			),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Event subject"),
			),
			mcp.WithString("start",
				mcp.Required(),
				mcp.Description("Event start time in RFC 3339 format (e.g., '2026-03-01T09:00:00Z')"),
			),
			mcp.WithString("end",
				mcp.Required(),
				mcp.Description("Event end time in RFC 3339 format"),
			),
			mcp.WithString("attendees",
				mcp.Description("Attendee address (string) or array of addresses"),
			),
		)
		s.AddTool(createTool, common.Instrumented(sc, "calendar_create_event", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))
	}

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	days := common.IntArg(args, "days", 7)
	if days <= 0 {
		days = 7
	}
	maxResults := common.IntArg(args, "maxResults", graph.DefaultMaxResults)

	from := time.Now()
	to := from.AddDate(0, 0, days)

	outcomes, err := fanout.Execute(ctx, sc.Registry(), account, func(ctx context.Context, name string) (string, error) {
		events, err := sc.GraphClientForAccount(name).ListEvents(ctx, from, to, maxResults)
		if err != nil {
			return "", err
		}
		return formatEventList(days, events), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := fanout.Aggregate(outcomes).Render()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	if account == "" {
		return mcp.NewToolResultError("account is required"), nil
	}
	subject := common.StringArg(args, "subject", "")
	if subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}

	start, err := time.Parse(time.RFC3339, common.StringArg(args, "start", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid start time: %v", err)), nil
	}
	end, err := time.Parse(time.RFC3339, common.StringArg(args, "end", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid end time: %v", err)), nil
	}
	if !end.After(start) {
		return mcp.NewToolResultError("end must be after start"), nil
	}
	attendees := common.StringSliceArg(args, "attendees")

	outcomes, err := fanout.Execute(ctx, sc.Registry(), account, func(ctx context.Context, name string) (string, error) {
		created, err := sc.GraphClientForAccount(name).CreateEvent(ctx, subject, start, end, attendees)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created event %q (%s).", created.Subject, created.ID), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := fanout.Aggregate(outcomes).Render()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func formatEventList(days int, events []graph.Event) string {
	if len(events) == 0 {
		return fmt.Sprintf("No events in the next %d days.", days)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events in the next %d days:\n", len(events), days)
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. %s (%s to %s)", i+1, ev.Subject, ev.Start.DateTime, ev.End.DateTime)
		if ev.Location != nil && ev.Location.DisplayName != "" {
			fmt.Fprintf(&b, " at %s", ev.Location.DisplayName)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
