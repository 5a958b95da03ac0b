package cmd

import (
	"os"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
	"github.com/orchestrator-tools/deploy/internal/template"
)

// render serializes doc canonically, substitutes ${key} placeholders from
// opts.templateKeys, and writes the result to opts.output ("-" meaning
// stdout).
func render(streams IOStreams, opts *rootOptions, doc *jsonval.Value) error {
	out, err := jsonval.MarshalCanonical(doc)
	if err != nil {
		return err
	}
	rendered := template.SubstituteAll(string(out), opts.templateKeys)

	if opts.output == "-" {
		_, err := streams.Out.Write([]byte(rendered + "\n"))
		return err
	}
	return os.WriteFile(opts.output, []byte(rendered+"\n"), 0o644)
}
