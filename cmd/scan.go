package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/spaghettifunk/delta/engine"
	"github.com/spaghettifunk/delta/engine/assets"
	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Import the whole project and summarize it",
	Long:  `Walks the asset directory, imports or reimports every file and prints how many assets of each kind were found.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var report *assets.Report
		ed, err := openEditor(&engine.Hooks{
			FnInitialize: func(_ *assets.AssetDatabase, r *assets.Report) error {
				report = r
				return nil
			},
		})
		if err != nil {
			return err
		}
		defer ed.Shutdown()

		db := ed.Database()
		// let texture decodes land so the states are final
		for !db.Idle() {
			db.Tick()
			time.Sleep(time.Millisecond)
		}
		fmt.Fprintln(cmd.OutOrStdout(), kindTable(db))
		fmt.Fprintf(cmd.OutOrStdout(), "%d imported, %d reimported, %d removed, %d failed\n",
			len(report.Imported), len(report.Reimported), len(report.Removed), len(report.Failed))
		failed := make([]string, 0, len(report.Failed))
		for path := range report.Failed {
			failed = append(failed, path)
		}
		sort.Strings(failed)
		for _, path := range failed {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", path, report.Failed[path])
		}
		return nil
	},
}

func kindTable(db *assets.AssetDatabase) string {
	counts := map[metadata.AssetKind][2]int{}
	db.GetRegistry().Each(func(e *registry.AssetEntry) bool {
		c := counts[e.Kind]
		c[0]++
		if db.State(e.Path) == assets.StateValid {
			c[1]++
		}
		counts[e.Kind] = c
		return true
	})
	kinds := make([]metadata.AssetKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KIND", "ASSETS", "VALID")
	for _, k := range kinds {
		t.Row(k.String(), strconv.Itoa(counts[k][0]), strconv.Itoa(counts[k][1]))
	}
	return t.String()
}

func init() {
	RootCmd.AddCommand(scanCmd)
}
