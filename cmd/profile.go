package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyclust/internal/dataset"
	"github.com/KaramelBytes/surveyclust/internal/utils"
)

var profileOutputPath string

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Report per-column missingness of a survey export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := dataOptions(cmd)
		if err != nil {
			return err
		}
		if opt.NaNValues == nil {
			opt.NaNValues = dataset.DefaultNaNValues
		}
		df, err := dataset.LoadFrame(path, opt)
		if err != nil {
			return err
		}
		p := dataset.ProfileMissing(filepath.Base(path), df)
		md := p.Markdown(opt.MissingThreshold)

		if profileOutputPath != "" {
			if err := utils.SafeWriteFile(profileOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote profile to %s\n", profileOutputPath)
			return nil
		}
		fmt.Print(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	addDataFlags(profileCmd)
	profileCmd.Flags().StringVarP(&profileOutputPath, "output", "o", "", "write the profile to a file instead of stdout")
}
