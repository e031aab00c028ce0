package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/synthesis"
	"github.com/silviu20/Web-App-sub001/internal/service"
)

// SynthesizeOptions is the configuration of the synthesize command.
type SynthesizeOptions struct {
	// Filename is the experiment declaration, "-" for stdin.
	Filename string
	Output   string

	GPU          bool
	Measurements int
	Noisy        bool

	// Engine is queried for GPU availability when --gpu is not given and
	// an engine URL is.
	Engine EngineOptions

	gpuSet   bool
	noisySet bool
}

type synthesisOutput struct {
	Synthesis    synthesis.Result       `json:"synthesis"`
	EngineConfig map[string]interface{} `json:"engine_config"`
}

// NewSynthesizeCommand creates the synthesize command.
func NewSynthesizeCommand(o *SynthesizeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize FILE",
		Short: "Synthesize an optimizer configuration",
		Long:  "Synthesize the recommender and acquisition function for a YAML or JSON experiment declaration",
		Args:  cobra.ExactArgs(1),

		PreRun: func(cmd *cobra.Command, args []string) {
			o.Filename = args[0]
			o.gpuSet = cmd.Flags().Changed("gpu")
			o.noisySet = cmd.Flags().Changed("noisy")
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&o.Output, "output", "o", FormatJSON, "output `format`, one of: json|yaml")
	cmd.Flags().BoolVar(&o.GPU, "gpu", false, "assume the engine runs on a GPU")
	cmd.Flags().IntVar(&o.Measurements, "measurements", 0, "number of measurements already recorded")
	cmd.Flags().BoolVar(&o.Noisy, "noisy", true, "treat target observations as noisy")
	cmd.Flags().StringVar(&o.Engine.URL, "engine-url", "", "query this engine for GPU availability")
	cmd.Flags().StringVar(&o.Engine.APIKey, "api-key", "", "bearer token sent to the engine")

	return cmd
}

func (o *SynthesizeOptions) run(cmd *cobra.Command) error {
	in, err := o.read(cmd.InOrStdin())
	if err != nil {
		return err
	}

	if o.noisySet {
		in.NoisyObservations = optimization.Bool(o.Noisy)
	}
	if cmd.Flags().Changed("measurements") {
		in.PriorMeasurementCount = o.Measurements
	}
	if err := in.Validate(); err != nil {
		return err
	}

	gpu, err := o.gpu(cmd, in)
	if err != nil {
		return err
	}

	res := synthesis.Synthesize(in.Request(optimization.Hints{
		GPUAvailable:          gpu,
		PriorMeasurementCount: in.PriorMeasurementCount,
		NoisyObservations:     in.NoisyObservations,
		UserOverride:          in.Override,
	}))
	cfg, err := res.EngineConfig()
	if err != nil {
		return err
	}
	return printObj(cmd.OutOrStdout(), o.Output, synthesisOutput{Synthesis: res, EngineConfig: cfg})
}

func (o *SynthesizeOptions) read(stdin io.Reader) (service.ExperimentInput, error) {
	var (
		data []byte
		err  error
	)
	if o.Filename == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(o.Filename)
	}
	if err != nil {
		return service.ExperimentInput{}, err
	}

	var in service.ExperimentInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return service.ExperimentInput{}, fmt.Errorf("invalid experiment %s: %w", o.Filename, err)
	}
	return in, nil
}

// gpu resolves GPU availability: the flag, then the declaration, then the
// engine when one is named.
func (o *SynthesizeOptions) gpu(cmd *cobra.Command, in service.ExperimentInput) (bool, error) {
	if o.gpuSet {
		return o.GPU, nil
	}
	if in.GPUAvailable != nil {
		return *in.GPUAvailable, nil
	}
	if o.Engine.URL == "" {
		return false, nil
	}
	api, err := o.Engine.api()
	if err != nil {
		return false, err
	}
	h := api.Health(cmd.Context())
	if !h.Available() {
		fmt.Fprintf(cmd.ErrOrStderr(), "engine at %s is unavailable, assuming no GPU\n", o.Engine.URL)
	}
	return h.Available() && h.UsingGPU, nil
}
