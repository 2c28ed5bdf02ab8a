package commands

import (
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/awards/internal/core"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var printRecords bool
	validateCmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validates and parses a file without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := fileUpload(args[0])
			if err != nil {
				return err
			}

			records, err := core.ParseUpload(up)
			if err != nil {
				return fmt.Errorf("%s: %w", up.FileName, err)
			}

			if printRecords {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", up.FileName, len(records))
			return nil
		},
	}
	validateCmd.Flags().BoolVar(&printRecords, "records", false, "print parsed records as JSON")
	return validateCmd
}
