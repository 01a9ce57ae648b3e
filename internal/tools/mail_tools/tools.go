package mail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"outlookmcp/internal/fanout"
	"outlookmcp/internal/graph"
	"outlookmcp/internal/server"
	"outlookmcp/internal/tools/common"
)

// RegisterMailTools registers all mail tools with the MCP server.
// Write operations are only registered when readOnly is false.
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTool := mcp.NewTool("mail_list",
		mcp.WithDescription("List recent messages in a mail folder. Without an account, queries every configured account."),
		mcp.WithString("account",
			mcp.Description("Account name (default: all configured accounts)"),
		),
		mcp.WithString("folder",
			mcp.Description("Mail folder to list (default: 'inbox')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages per account (default: 10)"),
		),
	)
	s.AddTool(listTool, common.Instrumented(sc, "mail_list", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleMailList(ctx, request, sc)
	}))

	readTool := mcp.NewTool("mail_read",
		mcp.WithDescription("Read the full body of a message by ID"),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Account name that owns the message"),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("ID of the message to read"),
		),
	)
	s.AddTool(readTool, common.Instrumented(sc, "mail_read", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleMailRead(ctx, request, sc)
	}))

	searchTool := mcp.NewTool("mail_search",
		mcp.WithDescription("Search messages across folders. Without an account, searches every configured account."),
		mcp.WithString("account",
			mcp.Description("Account name (default: all configured accounts)"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (e.g., 'from:alice budget report')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages per account (default: 10)"),
		),
	)
	s.AddTool(searchTool, common.Instrumented(sc, "mail_search", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleMailSearch(ctx, request, sc)
	}))

	if !readOnly {
		sendTool := mcp.NewTool("mail_send",
			mcp.WithDescription("Send a plain-text email from a specific account"),
			mcp.WithString("account",
				mcp.Required(),
				mcp.Description("Account name to send from"),
			),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Recipient address (string) or array of addresses"),
			),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Message subject"),
			),
			mcp.WithString("body",
				mcp.Required(),
				mcp.Description("Plain-text message body"),
			),
		)
		s.AddTool(sendTool, common.Instrumented(sc, "mail_send", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMailSend(ctx, request, sc)
		}))
	}

	return nil
}

func handleMailList(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	folder := common.StringArg(args, "folder", "inbox")
	maxResults := common.IntArg(args, "maxResults", graph.DefaultMaxResults)

	outcomes, err := fanout.Execute(ctx, sc.Registry(), account, func(ctx context.Context, name string) (string, error) {
		msgs, err := sc.GraphClientForAccount(name).ListMessages(ctx, folder, maxResults)
		if err != nil {
			return "", err
		}
		return formatMessageList(folder, msgs), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return renderReply(outcomes)
}

func handleMailRead(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	if account == "" {
		return mcp.NewToolResultError("account is required"), nil
	}
	messageID := common.StringArg(args, "messageId", "")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	outcomes, err := fanout.Execute(ctx, sc.Registry(), account, func(ctx context.Context, name string) (string, error) {
		msg, err := sc.GraphClientForAccount(name).GetMessage(ctx, messageID)
		if err != nil {
			return "", err
		}
		return formatMessage(msg), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return renderReply(outcomes)
}

func handleMailSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	query := common.StringArg(args, "query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	maxResults := common.IntArg(args, "maxResults", graph.DefaultMaxResults)

	outcomes, err := fanout.Execute(ctx, sc.Registry(), account, func(ctx context.Context, name string) (string, error) {
		msgs, err := sc.GraphClientForAccount(name).SearchMessages(ctx, query, maxResults)
		if err != nil {
			return "", err
		}
		return formatSearchResults(query, msgs), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return renderReply(outcomes)
}

func handleMailSend(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.AccountFromArgs(args)
	if account == "" {
		return mcp.NewToolResultError("account is required"), nil
	}
	to := common.StringSliceArg(args, "to")
	if len(to) == 0 {
		return mcp.NewToolResultError("to is required"), nil
	}
	subject := common.StringArg(args, "subject", "")
	if subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	body := common.StringArg(args, "body", "")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	outcomes, err := fanout.Execute(ctx, sc.Registry(), account, func(ctx context.Context, name string) (string, error) {
		if err := sc.GraphClientForAccount(name).SendMail(ctx, to, subject, body); err != nil {
			return "", err
		}
		return fmt.Sprintf("Message %q sent to %s.", subject, strings.Join(to, ", ")), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return renderReply(outcomes)
}

// renderReply turns per-account outcomes into a single tool result.
func renderReply(outcomes []fanout.Outcome[string]) (*mcp.CallToolResult, error) {
	text, err := fanout.Aggregate(outcomes).Render()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func formatMessageList(folder string, msgs []graph.Message) string {
	if len(msgs) == 0 {
		return fmt.Sprintf("No messages in %s.", folder)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d messages in %s:\n", len(msgs), folder)
	for i, msg := range msgs {
		fmt.Fprintf(&b, "%d. %s", i+1, summarizeMessage(msg))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSearchResults(query string, msgs []graph.Message) string {
	if len(msgs) == 0 {
		return fmt.Sprintf("No messages matching %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d messages matching %q:\n", len(msgs), query)
	for i, msg := range msgs {
		fmt.Fprintf(&b, "%d. %s", i+1, summarizeMessage(msg))
	}
	return strings.TrimRight(b.String(), "\n")
}

func summarizeMessage(msg graph.Message) string {
	from := "unknown sender"
	if msg.From != nil {
		from = msg.From.EmailAddress.Address
		if msg.From.EmailAddress.Name != "" {
			from = fmt.Sprintf("%s <%s>", msg.From.EmailAddress.Name, msg.From.EmailAddress.Address)
		}
	}
	read := ""
	if !msg.IsRead {
		read = " [unread]"
	}
	return fmt.Sprintf("%s from %s (%s)%s\n   ID: %s\n", msg.Subject, from, msg.ReceivedDateTime, read, msg.ID)
}

func formatMessage(msg *graph.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	if msg.From != nil {
		fmt.Fprintf(&b, "From: %s\n", msg.From.EmailAddress.Address)
	}
	if len(msg.ToRecipients) > 0 {
		addrs := make([]string, len(msg.ToRecipients))
		for i, r := range msg.ToRecipients {
			addrs[i] = r.EmailAddress.Address
		}
		fmt.Fprintf(&b, "To: %s\n", strings.Join(addrs, ", "))
	}
	if msg.ReceivedDateTime != "" {
		fmt.Fprintf(&b, "Received: %s\n", msg.ReceivedDateTime)
	}
	b.WriteString("\n")
	if msg.Body != nil {
		b.WriteString(msg.Body.Content)
	} else {
		b.WriteString(msg.BodyPreview)
	}
	return b.String()
}
