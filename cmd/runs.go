package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyclust/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved evaluation and stability runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentConfig(); err != nil {
			return err
		}
		runs, err := report.ListRuns(outputDir())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("(no runs)")
			return nil
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Kind", "Input", "Created", "Artifacts"})
		for _, r := range runs {
			table.Append([]string{r.ID, r.Kind, r.Input, r.CreatedAt.Format("2006-01-02 15:04:05"), strconv.Itoa(len(r.Artifacts))})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
