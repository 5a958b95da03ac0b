package cmd

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/orchestrator-tools/deploy/internal/logging"
	"github.com/orchestrator-tools/deploy/internal/orchestrator"
	"github.com/orchestrator-tools/deploy/internal/printer"
)

// IOStreams bundles the output streams subcommands write to.
type IOStreams struct {
	Out    io.Writer
	ErrOut io.Writer
}

type rootOptions struct {
	baseURL       string
	token         string
	insecure      bool
	deployTimeout time.Duration
	debug         bool
}

func NewRootCmd(streams IOStreams) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "deployer",
		Short:         "Reconcile applications and groups against the orchestrator's HTTP API.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	f := rootCmd.PersistentFlags()
	f.SortFlags = false
	f.StringVarP(&opts.baseURL, "baseurl", "b", "", "Orchestrator base URL.")
	f.StringVarP(&opts.token, "token", "a", "", "Access token, attached as the access_token cookie.")
	f.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification. Off by default; opt in explicitly.")
	f.DurationVar(&opts.deployTimeout, "deploy-timeout", 10*time.Minute, "Per-application convergence deadline.")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug-level logging.")
	//nolint:errcheck
	_ = rootCmd.MarkPersistentFlagRequired("baseurl")
	_ = rootCmd.MarkPersistentFlagRequired("token")

	rootCmd.AddCommand(newDeployCmd(streams, opts))
	rootCmd.AddCommand(newDeleteCmd(streams, opts))
	return rootCmd
}

func (o *rootOptions) newClient() *orchestrator.Client {
	var clientOpts []orchestrator.Option
	if o.insecure {
		clientOpts = append(clientOpts, orchestrator.WithInsecureSkipVerify())
	}
	return orchestrator.New(o.baseURL, o.token, clientOpts...)
}

func (o *rootOptions) newLogger(streams IOStreams) *slog.Logger {
	return logging.New(streams.ErrOut, o.debug)
}

func (o *rootOptions) newPrinter(streams IOStreams) *printer.Printer {
	return printer.New(streams.Out)
}
