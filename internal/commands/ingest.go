package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JonMunkholm/awards/internal/core"
	"github.com/spf13/cobra"
)

// cliSource marks upload log entries written from the command line.
const cliSource = "cli"

func newIngestCmd(deps *Deps) *cobra.Command {
	var timeout time.Duration
	ingestCmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Ingests an award file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := fileUpload(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ctx = core.ContextWithSource(ctx, cliSource)

			st, closeStore, err := deps.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := core.NewService(st).ProcessUpload(ctx, up)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	ingestCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "maximum ingestion time")
	return ingestCmd
}
