package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"market-loader/src/helpers"
	"market-loader/src/pipeline"

	"github.com/spf13/cobra"
)

var (
	configFile string
	symbol     string
)

var versionString = "0.1.0"

// -----------------------------------------------------------------------------

func main() {
	rootCmd := &cobra.Command{
		Use:           "market-loader",
		Short:         "Load daily market quotes and staged CSV files into a warehouse",
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config/default.yaml", "Path to config file")

	runCmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Run a pipeline once and print its report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), args[0], pipeline.RunOptions{Symbol: symbol})
		},
	}
	runCmd.Flags().StringVar(&symbol, "symbol", "", "Ticker to fetch (market_data only)")

	initCmd := &cobra.Command{
		Use:   "init <pipeline>",
		Short: "Create the warehouse objects a pipeline needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), args[0], pipeline.RunOptions{SetupOnly: true})
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP/WebSocket API and the gRPC control service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	pipelinesCmd := &cobra.Command{
		Use:   "pipelines",
		Short: "List the registered pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap(cmd.Context(), configFile)
			if err != nil {
				return err
			}
			defer app.Close()
			return printJSON(app.Registry.List())
		},
	}

	rootCmd.AddCommand(runCmd, initCmd, serveCmd, pipelinesCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", helpers.Kind(err), err)
		stop()
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

// runOnce prints the report even when the run failed, then returns the error
// so the process exits non-zero.
func runOnce(ctx context.Context, name string, opts pipeline.RunOptions) error {
	app, err := bootstrap(ctx, configFile)
	if err != nil {
		return err
	}
	defer app.Close()

	report, runErr := app.Registry.Run(ctx, name, opts)
	var unknown *pipeline.ErrUnknownPipeline
	if errors.As(runErr, &unknown) {
		return runErr
	}
	if err := printJSON(report); err != nil {
		return err
	}
	return runErr
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
