package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"outlookmcp/internal/auth"
	"outlookmcp/internal/config"
	"outlookmcp/internal/tokencache"
)

// newAuthManager wires a registry, token store, and auth manager from the
// shared CLI flags.
func newAuthManager(configPath, tokenCachePath string) (*config.Registry, *auth.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	registry := config.NewRegistry(cfg.Accounts)

	if tokenCachePath == "" {
		tokenCachePath = tokencache.DefaultPath()
	}
	store := tokencache.NewStore(tokenCachePath)

	return registry, auth.NewManager(registry, store, cfg.Server), nil
}

func newLoginCmd() *cobra.Command {
	var (
		configPath     string
		tokenCachePath string
	)

	cmd := &cobra.Command{
		Use:   "login ACCOUNT",
		Short: "Authenticate an account through the browser",
		Long: `Run the interactive OAuth authorization-code flow for one configured
account. A browser window opens for sign-in; the command waits until the
login completes or times out after five minutes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			_, manager, err := newAuthManager(configPath, tokenCachePath)
			if err != nil {
				return err
			}

			account := args[0]
			login, err := manager.StartLogin(ctx, account)
			if err != nil {
				return fmt.Errorf("failed to start login: %w", err)
			}

			fmt.Printf("Opening browser for account %q. If it does not open, visit:\n%s\n\n", account, login.AuthURL)

			result := login.Wait(ctx)
			if result.Err != nil {
				return fmt.Errorf("login failed: %w", result.Err)
			}

			fmt.Printf("Authenticated account %q as %s.\n", account, result.Identity)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the accounts configuration file (YAML)")
	cmd.Flags().StringVar(&tokenCachePath, "token-cache", "", "Path to the token cache file")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	var (
		configPath     string
		tokenCachePath string
		all            bool
	)

	cmd := &cobra.Command{
		Use:   "logout [ACCOUNT]",
		Short: "Remove cached credentials for an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manager, err := newAuthManager(configPath, tokenCachePath)
			if err != nil {
				return err
			}

			if all || len(args) == 0 {
				if err := manager.LogoutAll(); err != nil {
					return fmt.Errorf("failed to log out: %w", err)
				}
				fmt.Println("Logged out all accounts.")
				return nil
			}

			if err := manager.Logout(args[0]); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			fmt.Printf("Logged out account %q.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the accounts configuration file (YAML)")
	cmd.Flags().StringVar(&tokenCachePath, "token-cache", "", "Path to the token cache file")
	cmd.Flags().BoolVar(&all, "all", false, "Log out every configured account")
	return cmd
}

func newAccountsCmd() *cobra.Command {
	var (
		configPath     string
		tokenCachePath string
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List configured accounts and their authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, manager, err := newAuthManager(configPath, tokenCachePath)
			if err != nil {
				return err
			}

			for _, name := range registry.List() {
				status := "not authenticated"
				if manager.HasSession(name) {
					status = "authenticated"
				}
				fmt.Printf("%s\t%s\n", name, status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the accounts configuration file (YAML)")
	cmd.Flags().StringVar(&tokenCachePath, "token-cache", "", "Path to the token cache file")
	return cmd
}
