package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orchestrator-tools/deploy/internal/deploy"
)

func newDeleteCmd(streams IOStreams, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group-name>",
		Short: "Recursively delete a group and every nested subgroup, deepest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dep := deploy.New(opts.newClient(), opts.newPrinter(streams), opts.newLogger(streams),
				deploy.WithTimeout(opts.deployTimeout))
			return dep.DeleteGroup(cmd.Context(), args[0])
		},
	}
}
