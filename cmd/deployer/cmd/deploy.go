package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orchestrator-tools/deploy/internal/deploy"
	"github.com/orchestrator-tools/deploy/internal/errs"
	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

func newDeployCmd(streams IOStreams, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <file>",
		Short: "Reconcile a rendered application or group document against the orchestrator.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return &errs.IOError{Op: "read", Path: args[0], Err: err}
			}
			v, err := jsonval.Parse(data)
			if err != nil {
				return errs.NewConfigError("deploy", err)
			}
			doc, ok := v.AsObject()
			if !ok {
				return errs.Configf("deploy", "%s: top-level JSON value must be an object", args[0])
			}

			dep := deploy.New(opts.newClient(), opts.newPrinter(streams), opts.newLogger(streams),
				deploy.WithTimeout(opts.deployTimeout))
			return dep.DeployGroup(cmd.Context(), doc)
		},
	}
}
