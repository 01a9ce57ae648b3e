package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the outlookmcp application
var rootCmd = &cobra.Command{
	Use:   "outlookmcp",
	Short: "MCP server for Outlook mail and calendars across multiple accounts",
	Long: `outlookmcp exposes Outlook mail and calendar operations to AI assistants
through the Model Context Protocol (MCP).

It manages OAuth sessions for any number of Microsoft accounts, refreshes
tokens silently, and fans read operations out across all configured
accounts in a single tool call.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "outlookmcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
