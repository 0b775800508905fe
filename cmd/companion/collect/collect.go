package collectcmder

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mindfulware/companion/cmd/companion/setup"
	"github.com/mindfulware/companion/collectsrv"
	"github.com/mindfulware/companion/pkg/console"
)

const collectLongDesc string = `Serve the training-example collection API.

Hosts a small HTTP service for adding, reviewing, and removing training
examples. Changes are written straight to the training data file, and
external edits to the file are picked up automatically.

Endpoints:
  GET    /health
  GET    /examples
  POST   /examples            {"instruction": ..., "context": ..., "response": ...}
  DELETE /examples/<index>
  GET    /examples/stats

Examples:
  companion collect
  companion collect --listen :8088`

const collectShortDesc string = "Serve the training-example collection API"

type collectCommander struct {
	common     setup.Common
	listenAddr string
	dataPath   string
}

func NewCollectCmd() *cobra.Command {
	cmder := &collectCommander{}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: collectShortDesc,
		Long:  collectLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.common.Register(cmd)
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Listen address (overrides config)")
	cmd.Flags().StringVarP(&cmder.dataPath, "data", "d", "", "Path to training examples JSON (overrides config)")

	return cmd
}

func (c *collectCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, log, err := c.common.Load()
	if err != nil {
		return err
	}
	defer log.Sync()

	if c.listenAddr != "" {
		cfg.CollectAddr = c.listenAddr
	}
	if c.dataPath != "" {
		cfg.TrainingDataFile = c.dataPath
	}

	cons := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	cons.Banner("TRAINING EXAMPLE COLLECTION")
	cons.Printf("Data file: %s\n", cfg.TrainingDataFile)
	cons.Printf("Listening on %s\n\n", cfg.CollectAddr)

	srv, err := collectsrv.New(collectsrv.Config{
		ListenAddr: cfg.CollectAddr,
		DataPath:   cfg.TrainingDataFile,
	}, log)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	if err := srv.Run(); err != nil && ctx.Err() == nil {
		return err
	}

	cons.Println("\nCollection server stopped.")
	return nil
}
