package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-swift-client/account"
	"github.com/jrsteele09/go-swift-client/internal/config"
	"github.com/jrsteele09/go-swift-client/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("swiftctl failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "swiftctl",
		Short:         "Session manager CLI for Keystone-style object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			figure.NewFigure("swiftctl", "cybermedium", true).Print()
			fmt.Println()
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/swiftctl/config.toml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newAuthCommand(),
		newStatsCommand(),
		newTenantsCommand(),
		newContainersCommand(),
		newTempURLCommand(),
		newServerTimeCommand(),
	)
	return root
}

func buildAccount() (*account.Account, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	creds := cfg.Credentials()
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var transportOptions []transport.HTTPOption
	if cfg.PreferredRegion != "" {
		transportOptions = append(transportOptions, transport.WithPreferredRegion(cfg.PreferredRegion))
	}
	tr := transport.NewHTTPTransport(creds.AuthURL, transportOptions...)

	var accountOptions []account.Option
	if cfg.HashPassword != "" {
		accountOptions = append(accountOptions, account.WithHashPassword(cfg.HashPassword))
	}
	return account.New(creds, tr, accountOptions...), nil
}

func newAuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate and show the session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := buildAccount()
			if err != nil {
				return err
			}

			a, err := acct.Authenticate(cmd.Context())
			if err != nil {
				return err
			}

			host, err := acct.OriginalHost()
			if err != nil {
				return err
			}

			fmt.Printf("state:    %s\n", acct.State())
			fmt.Printf("host:     %s\n", host)
			fmt.Printf("tenant:   %v\n", acct.IsTenantSupplied())
			if a.ExpiresAt.IsZero() {
				fmt.Println("expires:  never")
			} else {
				fmt.Printf("expires:  %s\n", a.ExpiresAt.Format(time.RFC3339))
			}
			fmt.Printf("calls:    %d\n", acct.NumberOfCalls())
			return nil
		},
	}
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show account usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := buildAccount()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			bytesUsed, err := acct.BytesUsed(ctx)
			if err != nil {
				return err
			}
			objects, err := acct.ObjectCount(ctx)
			if err != nil {
				return err
			}
			containerCount, err := acct.ContainerCount(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("bytes used:  %d\n", bytesUsed)
			fmt.Printf("objects:     %d\n", objects)
			fmt.Printf("containers:  %d\n", containerCount)
			return nil
		},
	}
}

func newTenantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tenants",
		Short: "List the tenants visible to the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := buildAccount()
			if err != nil {
				return err
			}

			list, err := acct.Tenants(cmd.Context())
			if err != nil {
				return err
			}
			for _, tenant := range list {
				fmt.Printf("%s\t%s\tenabled=%v\n", tenant.ID, tenant.Name, tenant.Enabled)
			}
			return nil
		},
	}
}

func newContainersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List the account's containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := buildAccount()
			if err != nil {
				return err
			}

			list, err := acct.Containers(cmd.Context())
			if err != nil {
				return err
			}
			for _, container := range list {
				fmt.Printf("%s\tobjects=%d\tbytes=%d\n", container.Name, container.ObjectCount, container.BytesUsed)
			}
			return nil
		},
	}
}

func newTempURLCommand() *cobra.Command {
	var (
		method   string
		validFor time.Duration
	)

	cmd := &cobra.Command{
		Use:   "tempurl <container> <object>",
		Short: "Generate a time-limited signed URL for an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := buildAccount()
			if err != nil {
				return err
			}

			// Sign against server time so clock skew cannot shift the window.
			if err := acct.SynchronizeWithServerTime(cmd.Context()); err != nil {
				return err
			}

			signed, err := acct.TempURL(cmd.Context(), method, args[0], args[1], validFor)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method the URL grants")
	cmd.Flags().DurationVar(&validFor, "valid-for", time.Hour, "how long the URL stays valid")
	return cmd
}

func newServerTimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server-time",
		Short: "Show the server clock and the measured offset",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := buildAccount()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := acct.SynchronizeWithServerTime(ctx); err != nil {
				return err
			}
			fmt.Printf("server time: %s\n", acct.ServerTime().Format(time.RFC3339))
			return nil
		},
	}
}
