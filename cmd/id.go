package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/delta/engine/assets/identity"
)

var readOnly bool

var idCmd = &cobra.Command{
	Use:   "id <file>...",
	Short: "Print the GUID of files, minting one when missing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			var (
				id  identity.AssetId
				err error
			)
			if readOnly {
				id, err = identity.ReadId(path)
			} else {
				id, err = identity.GetOrCreateId(path)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, path)
		}
		return nil
	},
}

func init() {
	idCmd.Flags().BoolVar(&readOnly, "read-only", false, "fail instead of writing a new sidecar")
	RootCmd.AddCommand(idCmd)
}
