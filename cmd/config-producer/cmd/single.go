package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orchestrator-tools/deploy/internal/configfile"
	"github.com/orchestrator-tools/deploy/internal/jsonval"
	"github.com/orchestrator-tools/deploy/internal/merge"
)

// newSingleCmd resolves and folds one extends chain into a single document.
func newSingleCmd(streams IOStreams, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "single <root> <name-or-path>",
		Short: "Resolve and merge one extends chain into a single document.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			root, nameOrPath := args[0], args[1]

			resolver := configfile.NewResolver(root, opts.strict)
			stack, err := resolver.ResolveByNameOrPath(nameOrPath)
			if err != nil {
				return err
			}

			merged, err := merge.FoldStack(stack)
			if err != nil {
				return err
			}

			return render(streams, opts, jsonval.FromObject(merged))
		},
	}
}
