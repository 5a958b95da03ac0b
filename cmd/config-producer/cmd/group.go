package cmd

import (
	"github.com/spf13/cobra"

	"github.com/orchestrator-tools/deploy/internal/configfile"
	"github.com/orchestrator-tools/deploy/internal/hierarchy"
	"github.com/orchestrator-tools/deploy/internal/jsonval"
	"github.com/orchestrator-tools/deploy/internal/merge"
)

// newGroupCmd resolves every *.instance under root, merges each one's extends
// chain, and assembles the results into a single Group document.
func newGroupCmd(streams IOStreams, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "group <root> <top-id>",
		Short: "Resolve every instance under root and assemble the application hierarchy.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			root, topID := args[0], args[1]

			resolver := configfile.NewResolver(root, opts.strict)
			instancePaths, err := resolver.FindAllInstances()
			if err != nil {
				return err
			}

			apps := make([]*hierarchy.Application, 0, len(instancePaths))
			for _, path := range instancePaths {
				stack, err := resolver.ResolveChain(path)
				if err != nil {
					return err
				}
				merged, err := merge.FoldStack(stack)
				if err != nil {
					return err
				}
				apps = append(apps, &hierarchy.Application{Doc: merged})
			}

			group := hierarchy.Build(topID, apps, opts.flattenHierarchy)
			return render(streams, opts, jsonval.FromObject(group.ToJSON()))
		},
	}
}
