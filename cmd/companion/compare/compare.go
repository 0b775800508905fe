package comparecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindfulware/companion/cmd/companion/setup"
	"github.com/mindfulware/companion/pkg/config"
	"github.com/mindfulware/companion/pkg/console"
	"github.com/mindfulware/companion/pkg/fault"
	"github.com/mindfulware/companion/pkg/history"
	"github.com/mindfulware/companion/pkg/report"
	"github.com/mindfulware/companion/pkg/runtime"
	"github.com/mindfulware/companion/pkg/scenario"
)

const compareLongDesc string = `Compare the base model against the fine-tuned adapter.

Generates responses to the same prompts from both models, side by side.
Test-suite runs are saved as a JSON report in the working directory.

Examples:
  companion compare
  companion compare --report my_comparison.json`

const compareShortDesc string = "Compare base and fine-tuned responses"

type compareCommander struct {
	common     setup.Common
	adapterDir string
	reportPath string
}

func NewCompareCmd() *cobra.Command {
	cmder := &compareCommander{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: compareShortDesc,
		Long:  compareLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.common.Register(cmd)
	cmd.Flags().StringVarP(&cmder.adapterDir, "adapter", "a", "", "Fine-tuned adapter directory (overrides config)")
	cmd.Flags().StringVar(&cmder.reportPath, "report", "", "Comparison report path (overrides config)")

	return cmd
}

type comparison struct {
	client *runtime.Client
	cons   *console.Console
	store  *history.Store
	log    *zap.Logger
	cfg    config.Config
}

func (c *compareCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, log, err := c.common.Load()
	if err != nil {
		return err
	}
	defer log.Sync()

	if c.adapterDir != "" {
		cfg.AdapterDir = c.adapterDir
	}
	if c.reportPath != "" {
		cfg.ReportFile = c.reportPath
	}

	cons := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	cons.Banner("MODEL COMPARISON TOOL")
	cons.Println("Compare responses between:")
	cons.Printf("  - Base model: %s\n", cfg.BaseModel)
	cons.Printf("  - Fine-tuned: %s\n", cfg.AdapterDir)
	cons.Println()

	if _, err := os.Stat(cfg.AdapterDir); err != nil {
		return fault.Precondition(
			fmt.Sprintf("fine-tuned model not found at %s", cfg.AdapterDir),
			"train the adapter first: companion train",
		)
	}

	if config.Token() == "" {
		cons.Warn("WARNING: %s is not set; the runtime may be unable to pull the gated base model", config.TokenEnv)
		cons.Println()
	}

	client := runtime.NewClient(cfg.RuntimeURL)
	if err := client.Health(ctx); err != nil {
		return fault.Precondition(
			fmt.Sprintf("could not reach the model runtime at %s: %v", cfg.RuntimeURL, err),
			"start the runtime sidecar, or point --runtime at a running one",
		)
	}

	cmp := &comparison{client: client, cons: cons, log: log, cfg: cfg}

	if cfg.HistoryDB != "" {
		store, err := history.Open(ctx, cfg.HistoryDB)
		if err != nil {
			log.Warn("transcripts disabled", zap.Error(err))
		} else {
			cmp.store = store
			defer store.Close()
		}
	}

	choice, err := cons.Choose("Choose comparison mode:",
		"Run test suite (predefined scenarios)",
		"Interactive comparison",
		"Both",
	)
	if err != nil {
		return nil
	}

	if choice == "1" || choice == "3" {
		records, err := cmp.runSuite(ctx)
		if err != nil {
			return err
		}

		if len(records) > 0 {
			if err := report.Write(cfg.ReportFile, records); err != nil {
				return err
			}
			cons.Success("Results saved to: %s", cfg.ReportFile)
		}
	}

	if choice == "2" || choice == "3" {
		if err := cmp.interactive(ctx); err != nil {
			return err
		}
	}

	cons.Println()
	cons.ThickRule()
	cons.Section("COMPARISON COMPLETE")
	cons.ThickRule()
	cons.Println("\nAnalysis tips:")
	cons.Println("  - Does the fine-tuned model show better therapeutic style?")
	cons.Println("  - Is the information more accurate and relevant?")
	cons.Println("  - Does it better match your training examples?")
	cons.Println("  - If not satisfied, add more training examples and retrain.")
	cons.Println()

	return nil
}

// compareOnce generates a base and a fine-tuned response for the same
// prompt and prints them side by side.
func (c *comparison) compareOnce(ctx context.Context, input, contextText string) (report.Record, error) {
	cons := c.cons

	cons.Println()
	cons.ThickRule()
	cons.Printf("USER INPUT: %s\n", input)
	if contextText != "" {
		cons.Printf("CONTEXT: %s\n", contextText)
	}
	cons.ThickRule()

	cons.Section("\nBASE MODEL RESPONSE:")
	cons.Rule()
	baseResp, err := c.client.Complete(ctx, c.cfg.BaseModel, "", contextText, input, c.cfg.Generate)
	if err != nil {
		return report.Record{}, fmt.Errorf("base model generation failed: %w", err)
	}
	cons.Println(baseResp)
	c.record(ctx, "base", input, contextText, baseResp)

	cons.Println()
	cons.Section("FINE-TUNED MODEL RESPONSE:")
	cons.Rule()
	ftResp, err := c.client.Complete(ctx, c.cfg.BaseModel, c.cfg.AdapterDir, contextText, input, c.cfg.Generate)
	if err != nil {
		return report.Record{}, fmt.Errorf("fine-tuned generation failed: %w", err)
	}
	cons.Println(ftResp)

	cons.Println()
	cons.ThickRule()

	c.record(ctx, "fine-tuned", input, contextText, ftResp)

	return report.Record{
		Input:             input,
		Context:           contextText,
		BaseResponse:      baseResp,
		FineTunedResponse: ftResp,
	}, nil
}

func (c *comparison) record(ctx context.Context, model, input, contextText, response string) {
	if c.store == nil {
		return
	}

	err := c.store.Record(ctx, history.Turn{
		Source:   "compare",
		Model:    model,
		Input:    input,
		Context:  contextText,
		Response: response,
	})
	if err != nil {
		c.log.Warn("could not record turn", zap.Error(err))
	}
}

func (c *comparison) runSuite(ctx context.Context) ([]report.Record, error) {
	cons := c.cons

	var records []report.Record
	for i, tc := range scenario.Suite {
		cons.Println()
		cons.ThickRule()
		cons.Printf("TEST CASE %d/%d\n", i+1, len(scenario.Suite))
		cons.ThickRule()

		record, err := c.compareOnce(ctx, tc.Input, tc.Context)
		if err != nil {
			if ctx.Err() != nil {
				return records, nil
			}
			return records, err
		}
		records = append(records, record)

		if err := cons.PressEnter("\nPress Enter to continue to the next test case..."); err != nil {
			break
		}
	}

	return records, nil
}

func (c *comparison) interactive(ctx context.Context) error {
	cons := c.cons

	cons.Println()
	cons.ThickRule()
	cons.Section("INTERACTIVE COMPARISON MODE")
	cons.ThickRule()
	cons.Println("Type your questions to compare responses.")
	cons.Println("Type 'quit' or 'exit' to stop.")
	cons.ThickRule()

	for {
		if ctx.Err() != nil {
			cons.Println("\nExiting...")
			return nil
		}

		input, err := cons.ReadLine("\nYour question: ")
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				cons.Println("\nExiting...")
				return nil
			}
			return fmt.Errorf("could not read input: %w", err)
		}

		if input == "" {
			continue
		}
		if console.IsQuit(input) {
			return nil
		}

		contextText, err := cons.ReadLine("Context (optional, press Enter to skip): ")
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				cons.Println("\nExiting...")
				return nil
			}
			return fmt.Errorf("could not read input: %w", err)
		}

		if _, err := c.compareOnce(ctx, input, contextText); err != nil {
			if ctx.Err() != nil {
				cons.Println("\nExiting...")
				return nil
			}
			cons.Error("Error: %v", err)
		}
	}
}
