package traincmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindfulware/companion/cmd/companion/setup"
	"github.com/mindfulware/companion/pkg/config"
	"github.com/mindfulware/companion/pkg/console"
	"github.com/mindfulware/companion/pkg/dataset"
	"github.com/mindfulware/companion/pkg/fault"
	"github.com/mindfulware/companion/pkg/llm"
	"github.com/mindfulware/companion/pkg/prompt"
	"github.com/mindfulware/companion/pkg/runtime"
)

const trainLongDesc string = `Fine-tune the base model with a LoRA adapter.

Loads the local training examples, formats them with the companion chat
template, and submits a QLoRA fine-tune job to the model runtime, streaming
progress until the adapter is saved.

Examples:
  companion train
  companion train --data fine-tuning/training-data/user-examples.json
  companion train --runtime http://gpu-box:11435`

const trainShortDesc string = "Fine-tune the companion adapter"

type trainCommander struct {
	common   setup.Common
	dataPath string
	yes      bool
}

func NewTrainCmd() *cobra.Command {
	cmder := &trainCommander{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: trainShortDesc,
		Long:  trainLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.common.Register(cmd)
	cmd.Flags().StringVarP(&cmder.dataPath, "data", "d", "", "Path to training examples JSON (overrides config)")
	cmd.Flags().BoolVarP(&cmder.yes, "yes", "y", false, "Skip the CPU-training confirmation prompt")

	return cmd
}

func (c *trainCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, log, err := c.common.Load()
	if err != nil {
		return err
	}
	defer log.Sync()

	if c.dataPath != "" {
		cfg.TrainingDataFile = c.dataPath
	}

	cons := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	cons.Banner("KETAMINE THERAPY COMPANION - LOCAL TRAINING")

	if config.Token() == "" {
		cons.Warn("WARNING: %s is not set; the runtime may be unable to pull the gated base model", config.TokenEnv)
		cons.Println("Get a token from: https://huggingface.co/settings/tokens")
		cons.Println()
	}

	client := runtime.NewClient(cfg.RuntimeURL)

	device, err := c.checkDevice(ctx, client, cons, cfg)
	if err != nil {
		return err
	}
	if device == nil {
		// Operator declined CPU training.
		return nil
	}

	examples, err := c.loadExamples(cons, cfg)
	if err != nil {
		return err
	}

	prompts := make([]string, len(examples))
	for i, ex := range examples {
		prompts[i] = prompt.ForTraining(ex.Context, ex.Instruction, ex.Response)
	}
	cons.Success("Formatted %d examples", len(prompts))

	for _, dir := range []string{cfg.AdapterDir, cfg.CheckpointDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create %s: %w", dir, err)
		}
	}

	req := &llm.TrainRequest{
		Model:     cfg.BaseModel,
		Prompts:   prompts,
		OutputDir: cfg.AdapterDir,
		Lora: llm.LoraConfig{
			Rank:    cfg.Train.LoraRank,
			Alpha:   cfg.Train.LoraAlpha,
			Dropout: cfg.Train.LoraDropout,
		},
		LearningRate:   cfg.Train.LearningRate,
		BatchSize:      cfg.Train.BatchSize,
		GradAccumSteps: cfg.Train.GradAccumSteps,
		NumEpochs:      cfg.Train.NumEpochs,
		MaxSeqLength:   cfg.Train.MaxSeqLength,
		WarmupSteps:    cfg.Train.WarmupSteps,
	}

	c.printRecipe(cons, cfg)

	cons.Println("Training started...")
	cons.ThickRule()

	start := time.Now()
	savedTo := cfg.AdapterDir

	err = client.Train(ctx, req, func(p llm.TrainProgress) error {
		switch {
		case p.Done:
			if p.SavedTo != "" {
				savedTo = p.SavedTo
			}
		case p.Step > 0:
			cons.Printf("epoch %d  step %d/%d  loss %.4f\n", p.Epoch, p.Step, p.TotalStep, p.Loss)
		case p.Status != "":
			cons.Println(p.Status)
		}
		return nil
	})
	if err != nil {
		log.Error("training failed",
			zap.String("model", cfg.BaseModel),
			zap.Int("examples", len(prompts)),
			zap.Error(err),
		)
		cons.Error("Training failed: %v", err)
		cons.Println("Troubleshooting:")
		cons.Println("- ensure the runtime has enough GPU memory (16GB+ recommended)")
		cons.Println("- verify the Hugging Face token is set correctly")
		cons.Println("- try reducing batch_size in the config file")
		return err
	}

	cons.ThickRule()
	cons.Success("Training completed in %s", time.Since(start).Round(time.Second))

	if abs, err := filepath.Abs(savedTo); err == nil {
		savedTo = abs
	}
	cons.Printf("\nModel location: %s\n", savedTo)
	cons.Println("\nNext steps:")
	cons.Println("1. Test the adapter: companion test")
	cons.Println("2. Compare against the base model: companion compare")

	return nil
}

// checkDevice probes the runtime's compute device. It returns nil with no
// error when the operator declines to train on CPU.
func (c *trainCommander) checkDevice(ctx context.Context, client *runtime.Client, cons *console.Console, cfg config.Config) (*llm.DeviceInfo, error) {
	cons.Println("Checking runtime device...")

	device, err := client.Device(ctx)
	if err != nil {
		return nil, fault.Precondition(
			fmt.Sprintf("could not reach the model runtime at %s: %v", cfg.RuntimeURL, err),
			"start the runtime sidecar, or point --runtime at a running one",
		)
	}

	if !device.CUDA() {
		cons.Warn("WARNING: no GPU detected, training will be VERY slow on CPU")
		cons.Println("For optimal performance, use a runtime with an NVIDIA GPU (16GB+ VRAM)")

		if !c.yes {
			answer, err := cons.ReadLine("\nContinue anyway? (yes/no): ")
			if err != nil || answer != "yes" {
				cons.Println("Training cancelled.")
				return nil, nil
			}
		}
		return &device, nil
	}

	cons.Success("GPU found: %s (%.2f GB)", device.Name, device.TotalMemory)
	if device.TotalMemory < 12 {
		cons.Warn("WARNING: GPU has less than 12GB memory, training may fail")
	}

	return &device, nil
}

func (c *trainCommander) loadExamples(cons *console.Console, cfg config.Config) ([]dataset.Example, error) {
	cons.Printf("\nLoading training data from %s...\n", cfg.TrainingDataFile)

	examples, err := dataset.Load(cfg.TrainingDataFile)
	if err != nil {
		return nil, err
	}

	cons.Success("Loaded %d training examples", len(examples))
	cons.Printf("Average response length: %.0f characters\n", dataset.AvgResponseLength(examples))

	if len(examples) < dataset.MinRecommended {
		cons.Warn("WARNING: only %d examples; at least %d are recommended for good results", len(examples), dataset.MinRecommended)
	}

	return examples, nil
}

func (c *trainCommander) printRecipe(cons *console.Console, cfg config.Config) {
	cons.Println("\nConfiguration:")
	cons.Printf("   - Learning rate: %g\n", cfg.Train.LearningRate)
	cons.Printf("   - Batch size: %d\n", cfg.Train.BatchSize)
	cons.Printf("   - Epochs: %d\n", cfg.Train.NumEpochs)
	cons.Printf("   - Gradient accumulation steps: %d\n", cfg.Train.GradAccumSteps)
	cons.Printf("   - Max sequence length: %d\n", cfg.Train.MaxSeqLength)
	cons.Printf("   - LoRA: r=%d alpha=%d dropout=%g\n",
		cfg.Train.LoraRank, cfg.Train.LoraAlpha, cfg.Train.LoraDropout)
	cons.Println()
}
