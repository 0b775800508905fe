package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	collectcmder "github.com/mindfulware/companion/cmd/companion/collect"
	comparecmder "github.com/mindfulware/companion/cmd/companion/compare"
	testcmder "github.com/mindfulware/companion/cmd/companion/modeltest"
	traincmder "github.com/mindfulware/companion/cmd/companion/train"
	"github.com/mindfulware/companion/pkg/fault"
)

const rootLongDesc string = `Operator toolkit for the Ketamine Therapy Companion model.

Fine-tune the base model with a LoRA adapter, chat with the result, and
compare its answers against the unmodified base model. Model loading,
quantization, and training are delegated to the model runtime sidecar.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "companion",
		Short:         "Fine-tune and evaluate the companion model",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		traincmder.NewTrainCmd(),
		testcmder.NewTestCmd(),
		comparecmder.NewCompareCmd(),
		collectcmder.NewCollectCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		exit(err)
	}
}

// exit prints err according to its class. Precondition failures get their
// remediation hint; interrupts get a short notice; everything else is an
// unexpected failure.
func exit(err error) {
	if pe, ok := fault.AsPrecondition(err); ok {
		color.Red("Error: %s", pe.Msg)
		if pe.Hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", pe.Hint)
		}
		os.Exit(1)
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nInterrupted.")
		os.Exit(130)
	}

	color.Red("Error: %v", err)
	os.Exit(1)
}
