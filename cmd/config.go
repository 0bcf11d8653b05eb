package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyclust/internal/config"
	"github.com/KaramelBytes/surveyclust/internal/kmodes"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set surveyclust configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("missing_threshold: %.3f\n", cfg.MissingThreshold)
		fmt.Printf("identifier_columns: %s\n", strings.Join(cfg.IdentifierColumns, ","))
		fmt.Printf("strict_identifiers: %t\n", cfg.StrictIdentifiers)
		fmt.Printf("clean_output: %s\n", cfg.CleanOutput)
		if cfg.Delimiter != "" {
			fmt.Printf("delimiter: %q\n", cfg.Delimiter)
		}
		if cfg.SheetName != "" {
			fmt.Printf("sheet_name: %s\n", cfg.SheetName)
		}
		fmt.Printf("init: %s\n", cfg.Init)
		fmt.Printf("n_init: %d\n", cfg.NInit)
		fmt.Printf("max_iter: %d\n", cfg.MaxIter)
		fmt.Printf("eval_seed: %d\n", cfg.EvalSeed)
		fmt.Printf("workers: %d\n", cfg.Workers)
		fmt.Printf("label_column: %s\n", cfg.LabelColumn)
		fmt.Printf("max_k: %d\n", cfg.MaxK)
		fmt.Printf("stability_k: %d\n", cfg.StabilityK)
		fmt.Printf("cluster_k: %d\n", cfg.ClusterK)
		fmt.Printf("stability_runs: %d\n", cfg.StabilityRuns)
		fmt.Printf("stability_y_min: %.0f\n", cfg.StabilityYMin)
		fmt.Printf("stability_y_max: %.0f\n", cfg.StabilityYMax)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("chart_width_in: %.1f\n", cfg.ChartWidthIn)
		fmt.Printf("chart_height_in: %.1f\n", cfg.ChartHeightIn)
		fmt.Printf("html_charts: %t\n", cfg.HTMLCharts)
		fmt.Printf("workbook: %t\n", cfg.Workbook)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %w", key, err)
		}
		return i, nil
	}
	atof := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float for %s: %w", key, err)
		}
		return f, nil
	}
	atob := func() (bool, error) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		return b, nil
	}
	var err error
	switch key {
	case "missing_threshold":
		c.MissingThreshold, err = atof()
	case "identifier_columns":
		c.IdentifierColumns = nil
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.IdentifierColumns = append(c.IdentifierColumns, s)
			}
		}
	case "strict_identifiers":
		c.StrictIdentifiers, err = atob()
	case "clean_output":
		c.CleanOutput = val
	case "delimiter":
		if _, err := parseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "sheet_name":
		c.SheetName = val
	case "init":
		m, err := kmodes.ParseInit(val)
		if err != nil {
			return err
		}
		c.Init = string(m)
	case "n_init":
		c.NInit, err = atoi()
	case "max_iter":
		c.MaxIter, err = atoi()
	case "eval_seed":
		var i int
		i, err = atoi()
		c.EvalSeed = int64(i)
	case "workers":
		c.Workers, err = atoi()
	case "label_column":
		c.LabelColumn = val
	case "max_k":
		c.MaxK, err = atoi()
	case "stability_k":
		c.StabilityK, err = atoi()
	case "cluster_k":
		c.ClusterK, err = atoi()
	case "stability_runs":
		c.StabilityRuns, err = atoi()
	case "stability_y_min":
		c.StabilityYMin, err = atof()
	case "stability_y_max":
		c.StabilityYMax, err = atof()
	case "output_dir":
		c.OutputDir = val
	case "chart_width_in":
		c.ChartWidthIn, err = atof()
	case "chart_height_in":
		c.ChartHeightIn, err = atof()
	case "html_charts":
		c.HTMLCharts, err = atob()
	case "workbook":
		c.Workbook, err = atob()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
