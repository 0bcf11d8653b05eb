package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyclust/internal/dataset"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <file>",
	Short: "Drop sparse columns, incomplete rows and identifiers; write the cleaned CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := dataOptions(cmd)
		if err != nil {
			return err
		}
		t, err := dataset.Prepare(args[0], opt)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Cleaned %s: %d rows x %d columns\n", args[0], t.Len(), len(t.Columns()))
		fmt.Printf("  dropped columns (> %.1f%% missing): %s\n", opt.MissingThreshold*100, joinNonEmpty(t.Dropped.Columns))
		fmt.Printf("  dropped identifiers: %s\n", joinNonEmpty(t.Dropped.Identifiers))
		fmt.Printf("  dropped incomplete rows: %d\n", t.Dropped.Rows)
		if opt.OutputPath != "" {
			fmt.Printf("✓ Wrote %s\n", opt.OutputPath)
		} else {
			color.Yellow("⚠ Cleaned table not persisted")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	addDataFlags(prepareCmd)
}
