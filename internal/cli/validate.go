package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kode4food/argyll/wizard/internal/definition"
	"github.com/kode4food/argyll/wizard/internal/script"
	"github.com/kode4food/argyll/wizard/pkg/api"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that every flow in a definition file builds",
		Long: `Load a YAML definition file and build every flow it declares.

Checks shapes, scope and usage pairings, property merges, scripts, and that
every nextFlow names a declared flow.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	src, err := definition.LoadFile(path,
		definition.WithCacheSize(opts.Config.DefinitionCacheSize),
		definition.WithScripts(script.NewEnv(opts.Config.ScriptCacheSize)),
		definition.WithPersister(discard),
	)
	if err != nil {
		return err
	}
	if err := src.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range src.FlowTypes() {
		def, err := src.FlowDefinition(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d activities, %d properties\n",
			name, len(def.Activities), def.Schema.Len())
	}
	fmt.Fprintf(out, "ok: %d flows\n", len(src.FlowTypes()))
	return nil
}

// discard stands in for the Redis persister so declarations can be checked
// without a connection
var discard = api.PersisterFunc(func(
	context.Context, api.ActivityContext, *api.Descriptor,
) (any, error) {
	return nil, nil
}).Persister()
