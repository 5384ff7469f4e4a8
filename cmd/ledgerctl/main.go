// Command ledgerctl administers a grledger data store directly, without
// going through the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"grledger/internal/backend"
	"grledger/internal/cli"
	"grledger/internal/config"
	"grledger/internal/ledger"
	"grledger/internal/log"
)

// env is what every subcommand works on.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	be     *backend.BackendResult
	app    *ledger.App
}

func openEnv(ctx context.Context, verbose bool) (*env, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := log.ParseLevel("warn")
	if verbose {
		level = log.ParseLevel(cfg.LogLevel)
	}
	logger := log.New(log.Config{Level: level, Format: cfg.LogFormat, Component: "ledgerctl", Output: os.Stderr})

	be, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	app := ledger.New(be.Store, cli.LedgerOptions(cfg, logger, nil))
	if err := app.Load(ctx); err != nil {
		_ = be.Cleanup()
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return &env{cfg: cfg, logger: logger, be: be, app: app}, nil
}

func (e *env) Close() error {
	return e.be.Cleanup()
}

// warnIfUnsaved reports a change that stayed in memory only.
func warnIfUnsaved(res ledger.Result) {
	if res.Warning != "" {
		fmt.Fprintln(os.Stderr, "WARN: change was not persisted:", res.Warning)
	}
}

func main() {
	var verbose bool
	var e *env

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Administer the GR Desain ledger store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			e, err = openEnv(cmd.Context(), verbose)
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured LOG_LEVEL instead of warn")

	current := func() *env { return e }
	root.AddCommand(
		usersCommand(current),
		categoriesCommand(current),
		reportCommand(current),
		exportCommand(current),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if e != nil {
		err = errors.Join(err, e.Close())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", ledgerMessage(err))
		os.Exit(1)
	}
}

// ledgerMessage prefers the dashboard wording of known ledger errors.
func ledgerMessage(err error) string {
	if msg := ledger.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}
