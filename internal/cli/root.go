// Package cli implements the expctl command line tool.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/silviu20/Web-App-sub001/internal/engine"
)

// EngineOptions locate the optimization engine.
type EngineOptions struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func (o *EngineOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.URL, "engine-url", o.URL, "base `URL` of the optimization engine")
	cmd.Flags().StringVar(&o.APIKey, "api-key", o.APIKey, "bearer token sent to the engine")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", engine.DefaultHealthTimeout, "engine health check timeout")
}

func (o *EngineOptions) api() (engine.API, error) {
	c, err := engine.NewClient(engine.Options{
		BaseURL:       o.URL,
		APIKey:        o.APIKey,
		HealthTimeout: o.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return engine.NewAPI(c, o.Timeout), nil
}

// NewRootCommand returns the expctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "expctl",
		Short:         "Experiment configuration tool",
		Long:          "Synthesize optimizer configurations and inspect the optimization engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewSynthesizeCommand(&SynthesizeOptions{}))
	root.AddCommand(NewHealthCommand(&HealthOptions{Engine: EngineOptions{URL: "http://localhost:8000"}}))

	return root
}
