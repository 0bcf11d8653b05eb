package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Data preparation
	MissingThreshold  float64  `mapstructure:"missing_threshold" yaml:"missing_threshold"`
	IdentifierColumns []string `mapstructure:"identifier_columns" yaml:"identifier_columns"`
	StrictIdentifiers bool     `mapstructure:"strict_identifiers" yaml:"strict_identifiers"`
	CleanOutput       string   `mapstructure:"clean_output" yaml:"clean_output"`
	Delimiter         string   `mapstructure:"delimiter" yaml:"delimiter"`
	SheetName         string   `mapstructure:"sheet_name" yaml:"sheet_name"`

	// Clustering
	Init        string `mapstructure:"init" yaml:"init"`
	NInit       int    `mapstructure:"n_init" yaml:"n_init"`
	MaxIter     int    `mapstructure:"max_iter" yaml:"max_iter"`
	EvalSeed    int64  `mapstructure:"eval_seed" yaml:"eval_seed"`
	Workers     int    `mapstructure:"workers" yaml:"workers"`
	LabelColumn string `mapstructure:"label_column" yaml:"label_column"`

	// Sweeps
	MaxK          int     `mapstructure:"max_k" yaml:"max_k"`
	StabilityK    int     `mapstructure:"stability_k" yaml:"stability_k"`
	ClusterK      int     `mapstructure:"cluster_k" yaml:"cluster_k"`
	StabilityRuns int     `mapstructure:"stability_runs" yaml:"stability_runs"`
	StabilityYMin float64 `mapstructure:"stability_y_min" yaml:"stability_y_min"`
	StabilityYMax float64 `mapstructure:"stability_y_max" yaml:"stability_y_max"`

	// Charts and reports
	OutputDir     string  `mapstructure:"output_dir" yaml:"output_dir"`
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`
	HTMLCharts    bool    `mapstructure:"html_charts" yaml:"html_charts"`
	Workbook      bool    `mapstructure:"workbook" yaml:"workbook"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveyclust/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".surveyclust")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("missing_threshold", 0.15)
	v.SetDefault("identifier_columns", []string{"Unnamed: 0", "submission_id"})
	v.SetDefault("strict_identifiers", false)
	v.SetDefault("clean_output", filepath.Join("data", "data_clean"))
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet_name", "")

	v.SetDefault("init", "Huang")
	v.SetDefault("n_init", 50)
	v.SetDefault("max_iter", 100)
	v.SetDefault("eval_seed", 42)
	v.SetDefault("workers", 1)
	v.SetDefault("label_column", "cluster")

	v.SetDefault("max_k", 10)
	v.SetDefault("stability_k", 4)
	v.SetDefault("cluster_k", 4)
	v.SetDefault("stability_runs", 20)
	// Tuned to the coffee survey's cost scale; set both to 0 for auto range.
	v.SetDefault("stability_y_min", 53000.0)
	v.SetDefault("stability_y_max", 58000.0)

	v.SetDefault("output_dir", "plots")
	v.SetDefault("chart_width_in", 10.0)
	v.SetDefault("chart_height_in", 6.0)
	v.SetDefault("html_charts", true)
	v.SetDefault("workbook", false)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEYCLUST")
	v.AutomaticEnv()

	SetDefaults(v)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".surveyclust")
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in configuration without consulting files or env.
func Default() *Global {
	v := viper.New()
	SetDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Validate rejects values that would make every command fail later.
func (c *Global) Validate() error {
	if c.MissingThreshold < 0 || c.MissingThreshold > 1 {
		return fmt.Errorf("invalid missing_threshold %.3f: must be within [0,1]", c.MissingThreshold)
	}
	if c.NInit < 1 {
		return fmt.Errorf("invalid n_init %d: must be >= 1", c.NInit)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("invalid max_iter %d: must be >= 1", c.MaxIter)
	}
	if c.ClusterK < 1 {
		return fmt.Errorf("invalid cluster_k %d: must be >= 1", c.ClusterK)
	}
	if c.StabilityYMax < c.StabilityYMin {
		return fmt.Errorf("invalid stability axis window [%g, %g]", c.StabilityYMin, c.StabilityYMax)
	}
	return nil
}
