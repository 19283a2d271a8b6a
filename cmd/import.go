package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/delta/engine/core"
)

var importCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Import files and print their ids",
	Long:  `Imports each file, relative to the asset directory, and prints its GUID.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := openEditor(nil)
		if err != nil {
			return err
		}
		defer ed.Shutdown()

		db := ed.Database()
		for _, path := range args {
			// the initial scan may already know it
			if e, err := db.Entry(path); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.ID, e.Kind, e.Path)
				continue
			}
			id, err := db.Import(path)
			if err != nil && !errors.Is(err, core.ErrDuplicatePath) {
				return err
			}
			e, err := db.Entry(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id, e.Kind, e.Path)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(importCmd)
}
