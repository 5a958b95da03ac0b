package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

// IOStreams bundles the output streams subcommands write to, mirroring the
// teacher's genericiooptions.IOStreams without the k8s dependency.
type IOStreams struct {
	Out    io.Writer
	ErrOut io.Writer
}

// rootOptions holds the persistent flags shared by "single" and "group".
type rootOptions struct {
	output           string
	templateKeys     map[string]string
	flattenHierarchy bool
	strict           bool
}

func NewRootCmd(streams IOStreams) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "config-producer",
		Short:         "Resolve and merge an extends chain of JSON configuration fragments.",
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
	f.StringVarP(&opts.output, "output", "o", "-", "Output file, or \"-\" for stdout.")
	f.StringToStringVar(&opts.templateKeys, "template-keys", nil,
		"key=value pairs substituted for ${key} placeholders in the rendered document.")
	f.BoolVar(&opts.flattenHierarchy, "flatten-hierarchy", false,
		"Collapse the application hierarchy to a single level, rewriting ids with '-' in place of '/'.")
	f.BoolVar(&opts.strict, "strict", false,
		"Reject ambiguous config names (more than one candidate under root) instead of taking the first match.")

	rootCmd.AddCommand(newSingleCmd(streams, opts))
	rootCmd.AddCommand(newGroupCmd(streams, opts))
	return rootCmd
}
