package account_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"outlookmcp/internal/server"
	"outlookmcp/internal/tools/common"
)

// RegisterAccountTools registers account management tools with the MCP server.
func RegisterAccountTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("account_list",
		mcp.WithDescription("List all configured Outlook accounts and their authentication status"),
	)
	s.AddTool(listTool, common.Instrumented(sc, "account_list", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAccountList(ctx, request, sc)
	}))

	loginTool := mcp.NewTool("account_login",
		mcp.WithDescription("Start an interactive browser login for an account. Blocks until the login completes or times out after five minutes."),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Name of the configured account to authenticate"),
		),
	)
	s.AddTool(loginTool, common.Instrumented(sc, "account_login", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAccountLogin(ctx, request, sc)
	}))

	logoutTool := mcp.NewTool("account_logout",
		mcp.WithDescription("Remove cached credentials for an account, or for all accounts when no account is given"),
		mcp.WithString("account",
			mcp.Description("Name of the account to log out (default: all accounts)"),
		),
	)
	s.AddTool(logoutTool, common.Instrumented(sc, "account_logout", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAccountLogout(ctx, request, sc)
	}))

	return nil
}

func handleAccountList(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	names := sc.Registry().List()
	if len(names) == 0 {
		return mcp.NewToolResultText("No accounts configured."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Configured accounts (%d):\n", len(names))
	for _, name := range names {
		status := "not authenticated"
		if sc.AuthManager().HasSession(name) {
			status = "authenticated"
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, status)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleAccountLogin(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.AccountFromArgs(request.GetArguments())
	if account == "" {
		return mcp.NewToolResultError("account is required"), nil
	}

	login, err := sc.AuthManager().StartLogin(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start login for account %q: %v", account, err)), nil
	}

	result := login.Wait(ctx)
	if result.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Login for account %q failed: %v\n\nIf the browser did not open, visit:\n%s",
			account, result.Err, login.AuthURL)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully authenticated account %q as %s.", account, result.Identity)), nil
}

func handleAccountLogout(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.AccountFromArgs(request.GetArguments())

	if account == "" {
		if err := sc.AuthManager().LogoutAll(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to log out all accounts: %v", err)), nil
		}
		return mcp.NewToolResultText("Logged out all accounts."), nil
	}

	if err := sc.AuthManager().Logout(account); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to log out account %q: %v", account, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Logged out account %q.", account)), nil
}
