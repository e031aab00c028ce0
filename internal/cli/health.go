package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// HealthOptions is the configuration of the health command.
type HealthOptions struct {
	Engine EngineOptions
	Output string
}

// NewHealthCommand creates the health command. It fails when the engine is
// unavailable.
func NewHealthCommand(o *HealthOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the optimization engine",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := o.Engine.api()
			if err != nil {
				return err
			}

			h := api.Health(cmd.Context())
			if err := printObj(cmd.OutOrStdout(), o.Output, h); err != nil {
				return err
			}
			if !h.Available() {
				return fmt.Errorf("engine at %s is %s", o.Engine.URL, h.Status)
			}
			return nil
		},
	}

	o.Engine.addFlags(cmd)
	cmd.Flags().StringVarP(&o.Output, "output", "o", FormatJSON, "output `format`, one of: json|yaml")

	return cmd
}
