package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyclust/internal/evaluate"
	"github.com/KaramelBytes/surveyclust/internal/render"
	"github.com/KaramelBytes/surveyclust/internal/report"
)

var evalMaxK int

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Sweep k = 2..max-k and report K-Modes cost and silhouette",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		src, err := sourceFor(cmd, path)
		if err != nil {
			return err
		}
		opt, err := fitOptions(cmd)
		if err != nil {
			return err
		}
		maxK := cfg.MaxK
		if cmd.Flags().Changed("max-k") {
			maxK = evalMaxK
		}
		opt.Progress = func(r evaluate.Record) {
			fmt.Printf("k=%d: Cost=%.0f, Silhouette=%.4f\n", r.K, r.Cost, r.Silhouette)
		}

		fmt.Printf("Evaluating clusters for k = 2 to %d...\n", maxK)
		recs, err := evaluate.EvaluateClusters(contextOf(cmd), src, maxK, opt)
		if err != nil {
			return err
		}
		printRecords(recs)
		if best, ok := evaluate.BestSilhouette(recs); ok {
			color.Green("✓ Highest silhouette at k=%d (%.4f)", best.K, best.Silhouette)
		}

		run := report.NewRun("evaluate", path, outputDir())
		run.Params["max_k"] = maxK
		run.Params["init"] = string(opt.Init)
		run.Params["n_init"] = opt.NInit
		run.Params["seed"] = opt.Seed
		run.Summary["records"] = recs
		dir, err := run.Dir()
		if err != nil {
			return err
		}
		var files []string
		csvPath := run.Path("evaluation.csv")
		if err := report.WriteRecordsCSV(csvPath, recs); err != nil {
			return err
		}
		files = append(files, csvPath)
		if !flagNoCharts {
			charts, err := render.Elbow(dir, recs, chartOptions(cmd))
			if err != nil {
				return err
			}
			files = append(files, charts...)
		}
		if wantWorkbook(cmd) {
			xlsx := run.Path("evaluation.xlsx")
			if err := report.WriteWorkbook(xlsx, recs, nil); err != nil {
				return err
			}
			files = append(files, xlsx)
		}
		return finishRun(run, files)
	},
}

func printRecords(recs []evaluate.Record) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"k", "Cost", "Silhouette"})
	for _, r := range recs {
		table.Append([]string{strconv.Itoa(r.K), fmt.Sprintf("%.0f", r.Cost), fmt.Sprintf("%.4f", r.Silhouette)})
	}
	table.Render()
}

// finishRun records files in the manifest, saves it and reports each path.
func finishRun(run *report.Run, files []string) error {
	for _, f := range files {
		if err := run.AddArtifact(f); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", f)
	}
	if err := run.Save(); err != nil {
		return err
	}
	fmt.Printf("✓ Run %s saved to %s\n", run.ID, run.Path("run.json"))
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	addDataFlags(evaluateCmd)
	addFitFlags(evaluateCmd)
	addChartFlags(evaluateCmd)
	evaluateCmd.Flags().IntVar(&evalMaxK, "max-k", 0, "largest cluster count to evaluate (overrides config)")
}
