package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"batteryshop/internal/app"
	"batteryshop/internal/config"
	"batteryshop/pkg/logger"
)

var version = "dev"

var (
	cfg   *config.Config
	log   *logger.Logger
	quiet bool
)

var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Operate the battery shop from the command line",
	Long: `shopctl submits sales, prints invoices and stock, seeds demo data and
issues development tokens. It reads the same environment (and .env file)
as the API server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if quiet {
			log = logger.Nop()
		} else {
			log, err = logger.New(logger.Config{Level: cfg.LogLevel, Development: true, OutputPaths: []string{"stderr"}})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
		}
		cmd.SetContext(logger.WithLogger(cmd.Context(), log))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
}

// withApp connects to the database for the duration of fn.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
