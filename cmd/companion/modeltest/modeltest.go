package testcmder

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
	"github.com/mindfulware/companion/pkg/runtime"
	"github.com/mindfulware/companion/pkg/scenario"
)

const testLongDesc string = `Run the fine-tuned companion adapter.

Offers an interactive chat session against the adapter, a set of canned
test scenarios, or both. Every generated turn is recorded in the local
transcript database.

Examples:
  companion test
  companion test --adapter models/ketamine-therapy-fine-tuned`

const testShortDesc string = "Test the fine-tuned adapter"

type testCommander struct {
	common     setup.Common
	adapterDir string
}

func NewTestCmd() *cobra.Command {
	cmder := &testCommander{}

	cmd := &cobra.Command{
		Use:   "test",
		Short: testShortDesc,
		Long:  testLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.common.Register(cmd)
	cmd.Flags().StringVarP(&cmder.adapterDir, "adapter", "a", "", "Fine-tuned adapter directory (overrides config)")

	return cmd
}

type session struct {
	client *runtime.Client
	cons   *console.Console
	store  *history.Store
	log    *zap.Logger
	cfg    config.Config
}

func (c *testCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, log, err := c.common.Load()
	if err != nil {
		return err
	}
	defer log.Sync()

	if c.adapterDir != "" {
		cfg.AdapterDir = c.adapterDir
	}

	cons := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	cons.Banner("TESTING FINE-TUNED MODEL")

	if _, err := os.Stat(cfg.AdapterDir); err != nil {
		return fault.Precondition(
			fmt.Sprintf("fine-tuned model not found at %s", cfg.AdapterDir),
			"train the adapter first: companion train",
		)
	}

	client := runtime.NewClient(cfg.RuntimeURL)

	device, err := client.Device(ctx)
	if err != nil {
		return fault.Precondition(
			fmt.Sprintf("could not reach the model runtime at %s: %v", cfg.RuntimeURL, err),
			"start the runtime sidecar, or point --runtime at a running one",
		)
	}
	cons.Printf("Using device: %s\n", device.Device)
	if !device.CUDA() {
		cons.Warn("WARNING: running on CPU, inference will be slow")
	}
	cons.Println()

	s := &session{client: client, cons: cons, log: log, cfg: cfg}

	if cfg.HistoryDB != "" {
		store, err := history.Open(ctx, cfg.HistoryDB)
		if err != nil {
			log.Warn("transcripts disabled", zap.Error(err))
		} else {
			s.store = store
			defer store.Close()
		}
	}

	choice, err := cons.Choose("Choose mode:",
		"Interactive chat",
		"Run test scenarios",
		"Both",
	)
	if err != nil {
		return nil
	}

	switch choice {
	case "1":
		return s.interactive(ctx)
	case "2":
		return s.runScenarios(ctx)
	case "3":
		if err := s.runScenarios(ctx); err != nil {
			return err
		}
		return s.interactive(ctx)
	default:
		cons.Println("Invalid choice. Running interactive mode...")
		return s.interactive(ctx)
	}
}

func (s *session) generate(ctx context.Context, input, contextText string) (string, error) {
	s.cons.Println("Generating response...")

	response, err := s.client.Complete(ctx, s.cfg.BaseModel, s.cfg.AdapterDir, contextText, input, s.cfg.Generate)
	if err != nil {
		return "", err
	}

	s.record(ctx, input, contextText, response)
	return response, nil
}

// record appends the turn to the transcript store. A failed write must not
// end the session.
func (s *session) record(ctx context.Context, input, contextText, response string) {
	if s.store == nil {
		return
	}

	err := s.store.Record(ctx, history.Turn{
		Source:   "test",
		Model:    s.cfg.AdapterDir,
		Input:    input,
		Context:  contextText,
		Response: response,
	})
	if err != nil {
		s.log.Warn("could not record turn", zap.Error(err))
	}
}

func (s *session) interactive(ctx context.Context) error {
	cons := s.cons

	cons.ThickRule()
	cons.Section("INTERACTIVE MODE")
	cons.ThickRule()
	cons.Println("Type your questions and get responses from the fine-tuned model.")
	cons.Println("Commands:")
	cons.Println("  - 'quit' or 'exit': Exit")
	cons.Println("  - 'test': Run test scenarios")
	cons.Println("  - 'clear': Clear screen")
	cons.ThickRule()
	cons.Println()

	for {
		if ctx.Err() != nil {
			cons.Println("\nGoodbye!")
			return nil
		}

		input, err := cons.ReadLine("You: ")
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				cons.Println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("could not read input: %w", err)
		}

		switch {
		case input == "":
			continue
		case console.IsQuit(input):
			cons.Println("\nGoodbye!")
			return nil
		case input == "clear":
			cons.ClearScreen()
			continue
		case input == "test":
			if err := s.runScenarios(ctx); err != nil {
				return err
			}
			continue
		}

		response, err := s.generate(ctx, input, "")
		if err != nil {
			if ctx.Err() != nil {
				cons.Println("\nGoodbye!")
				return nil
			}
			cons.Error("Error: %v", err)
			cons.Println()
			continue
		}

		cons.Printf("\nAssistant: %s\n\n", response)
		cons.Rule()
		cons.Println()
	}
}

func (s *session) runScenarios(ctx context.Context) error {
	cons := s.cons
	cases := scenario.TestCases()

	cons.Println()
	cons.ThickRule()
	cons.Section("RUNNING TEST SCENARIOS")
	cons.ThickRule()
	cons.Println()

	for i, tc := range cases {
		cons.Printf("Test case %d/%d\n", i+1, len(cases))
		cons.Rule()
		cons.Printf("Input: %s\n", tc.Input)
		if tc.Context != "" {
			cons.Printf("Context: %s\n", tc.Context)
		}
		cons.Println()

		response, err := s.generate(ctx, tc.Input, tc.Context)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("scenario %d failed: %w", i+1, err)
		}

		cons.Printf("Response: %s\n", response)
		cons.Rule()
		cons.Println()
	}

	cons.Success("Test scenarios complete!")
	cons.Println()

	return nil
}
