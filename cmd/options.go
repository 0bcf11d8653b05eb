package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyclust/internal/dataset"
	"github.com/KaramelBytes/surveyclust/internal/evaluate"
	"github.com/KaramelBytes/surveyclust/internal/kmodes"
	"github.com/KaramelBytes/surveyclust/internal/render"
)

var (
	// Data preparation flags shared by every command that reads a survey.
	flagThreshold   float64
	flagCleanOutput string
	flagNoPersist   bool
	flagStrictIDs   bool
	flagIdentifiers []string
	flagDelimiter   string
	flagSheet       string

	// K-Modes flags
	flagInit    string
	flagNInit   int
	flagMaxIter int
	flagSeed    int64

	// Chart flags
	flagNoCharts bool
	flagHTML     bool
	flagWorkbook bool
)

func addDataFlags(c *cobra.Command) {
	c.Flags().Float64Var(&flagThreshold, "threshold", 0, "max missing fraction of a kept column (overrides config)")
	c.Flags().StringVar(&flagCleanOutput, "clean-output", "", "path of the cleaned CSV (overrides config)")
	c.Flags().BoolVar(&flagNoPersist, "no-persist", false, "do not write the cleaned CSV")
	c.Flags().BoolVar(&flagStrictIDs, "strict-ids", false, "fail when an identifier column is missing")
	c.Flags().StringSliceVar(&flagIdentifiers, "id-column", nil, "identifier columns to drop (overrides config)")
	c.Flags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',', ';', '|' or 'tab' (default: by extension)")
	c.Flags().StringVar(&flagSheet, "sheet-name", "", "worksheet of an .xlsx input (default: first sheet)")
}

func addFitFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagInit, "init", "", "K-Modes initialization: Huang, Cao or random (overrides config)")
	c.Flags().IntVar(&flagNInit, "n-init", 0, "K-Modes restarts per fit (overrides config)")
	c.Flags().IntVar(&flagMaxIter, "max-iter", 0, "max refinement iterations per restart (overrides config)")
	c.Flags().Int64Var(&flagSeed, "seed", 0, "random seed for evaluation and clustering (overrides config)")
}

func addChartFlags(c *cobra.Command) {
	c.Flags().BoolVar(&flagNoCharts, "no-charts", false, "skip chart rendering")
	c.Flags().BoolVar(&flagHTML, "html", false, "also write interactive HTML charts (overrides config)")
	c.Flags().BoolVar(&flagWorkbook, "workbook", false, "also write an .xlsx report (overrides config)")
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func dataOptions(c *cobra.Command) (dataset.Options, error) {
	g, err := currentConfig()
	if err != nil {
		return dataset.Options{}, err
	}
	opt := dataset.DefaultOptions()
	opt.Logger = logger
	opt.MissingThreshold = g.MissingThreshold
	opt.IdentifierColumns = g.IdentifierColumns
	opt.StrictIdentifiers = g.StrictIdentifiers
	opt.OutputPath = g.CleanOutput
	opt.Sheet = g.SheetName
	delim := g.Delimiter

	f := c.Flags()
	if f.Changed("threshold") {
		if flagThreshold < 0 || flagThreshold > 1 {
			return dataset.Options{}, fmt.Errorf("--threshold must be within [0,1], got %g", flagThreshold)
		}
		opt.MissingThreshold = flagThreshold
	}
	if f.Changed("clean-output") {
		opt.OutputPath = flagCleanOutput
	}
	if flagNoPersist {
		opt.OutputPath = ""
	}
	if f.Changed("strict-ids") {
		opt.StrictIdentifiers = flagStrictIDs
	}
	if f.Changed("id-column") {
		opt.IdentifierColumns = flagIdentifiers
	}
	if f.Changed("delimiter") {
		delim = flagDelimiter
	}
	if f.Changed("sheet-name") {
		opt.Sheet = flagSheet
	}
	if opt.Delimiter, err = parseDelimiter(delim); err != nil {
		return dataset.Options{}, err
	}
	return opt, nil
}

func fitOptions(c *cobra.Command) (evaluate.Options, error) {
	g, err := currentConfig()
	if err != nil {
		return evaluate.Options{}, err
	}
	opt := evaluate.DefaultOptions()
	opt.Logger = logger
	opt.NInit = g.NInit
	opt.MaxIter = g.MaxIter
	opt.Seed = g.EvalSeed
	opt.Workers = g.Workers
	opt.LabelColumn = g.LabelColumn
	init := g.Init

	f := c.Flags()
	if f.Changed("init") {
		init = flagInit
	}
	if f.Changed("n-init") {
		opt.NInit = flagNInit
	}
	if f.Changed("max-iter") {
		opt.MaxIter = flagMaxIter
	}
	if f.Changed("seed") {
		opt.Seed = flagSeed
	}
	if opt.Init, err = kmodes.ParseInit(init); err != nil {
		return evaluate.Options{}, err
	}
	return opt, nil
}

func chartOptions(c *cobra.Command) render.Options {
	g := cfg
	opt := render.DefaultOptions()
	if g != nil {
		opt.WidthIn = g.ChartWidthIn
		opt.HeightIn = g.ChartHeightIn
		opt.YMin = g.StabilityYMin
		opt.YMax = g.StabilityYMax
		opt.NInit = g.NInit
		opt.HTML = g.HTMLCharts
	}
	if c.Flags().Changed("html") {
		opt.HTML = flagHTML
	}
	return opt
}

func wantWorkbook(c *cobra.Command) bool {
	if c.Flags().Changed("workbook") {
		return flagWorkbook
	}
	return cfg != nil && cfg.Workbook
}

// sourceFor wraps path in a cached Preparer so a command that loads the
// table more than once cleans it only once.
func sourceFor(c *cobra.Command, path string) (*dataset.Cache, error) {
	opt, err := dataOptions(c)
	if err != nil {
		return nil, err
	}
	return dataset.NewCache(dataset.NewPreparer(path, opt)), nil
}

func outputDir() string {
	if cfg != nil && cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return "plots"
}

func joinNonEmpty(xs []string) string {
	if len(xs) == 0 {
		return "(none)"
	}
	return strings.Join(xs, ", ")
}
