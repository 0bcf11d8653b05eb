package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyclust/internal/evaluate"
	"github.com/KaramelBytes/surveyclust/internal/render"
	"github.com/KaramelBytes/surveyclust/internal/report"
)

var (
	stabK    int
	stabRuns int
	stabYMin float64
	stabYMax float64
)

var stabilityCmd = &cobra.Command{
	Use:   "stability <file>",
	Short: "Refit K-Modes with seeds 0..runs-1 and report the spread of costs",
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
		k, runs := cfg.StabilityK, cfg.StabilityRuns
		f := cmd.Flags()
		if f.Changed("k") {
			k = stabK
		}
		if f.Changed("runs") {
			runs = stabRuns
		}

		fmt.Printf("Testing stability for k=%d over %d runs...\n", k, runs)
		res, err := evaluate.EvaluateStability(contextOf(cmd), src, k, runs, opt)
		if err != nil {
			return err
		}
		fmt.Printf("Mean Cost: %.0f | Std Dev: %.0f\n", res.Mean, res.StdDev)

		run := report.NewRun("stability", path, outputDir())
		run.Params["k"] = k
		run.Params["runs"] = runs
		run.Params["init"] = string(opt.Init)
		run.Params["n_init"] = opt.NInit
		run.Summary["costs"] = res.Costs
		run.Summary["mean"] = res.Mean
		run.Summary["std_dev"] = res.StdDev
		dir, err := run.Dir()
		if err != nil {
			return err
		}
		var files []string
		csvPath := run.Path("stability.csv")
		if err := report.WriteStabilityCSV(csvPath, res); err != nil {
			return err
		}
		files = append(files, csvPath)
		if !flagNoCharts {
			copt := chartOptions(cmd)
			copt.NInit = opt.NInit
			if f.Changed("y-min") {
				copt.YMin = stabYMin
			}
			if f.Changed("y-max") {
				copt.YMax = stabYMax
			}
			charts, err := render.Stability(dir, res, copt)
			if err != nil {
				return err
			}
			files = append(files, charts...)
		}
		if wantWorkbook(cmd) {
			xlsx := run.Path("stability.xlsx")
			if err := report.WriteWorkbook(xlsx, nil, res); err != nil {
				return err
			}
			files = append(files, xlsx)
		}
		return finishRun(run, files)
	},
}

func init() {
	rootCmd.AddCommand(stabilityCmd)
	addDataFlags(stabilityCmd)
	addFitFlags(stabilityCmd)
	addChartFlags(stabilityCmd)
	stabilityCmd.Flags().IntVarP(&stabK, "k", "k", 0, "cluster count to test (overrides config)")
	stabilityCmd.Flags().IntVar(&stabRuns, "runs", 0, "number of seeded runs (overrides config)")
	stabilityCmd.Flags().Float64Var(&stabYMin, "y-min", 0, "chart y-axis minimum; equal min and max means auto")
	stabilityCmd.Flags().Float64Var(&stabYMax, "y-max", 0, "chart y-axis maximum; equal min and max means auto")
}
