package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyclust/internal/evaluate"
)

var (
	clusterK      int
	clusterOutput string
)

var clusterCmd = &cobra.Command{
	Use:   "cluster <file>",
	Short: "Fit K-Modes once and label every cleaned row with its cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sourceFor(cmd, args[0])
		if err != nil {
			return err
		}
		opt, err := fitOptions(cmd)
		if err != nil {
			return err
		}
		k := cfg.ClusterK
		if cmd.Flags().Changed("k") {
			k = clusterK
		}
		t, res, err := evaluate.ClusterData(contextOf(cmd), src, k, opt)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Clustered %d rows into %d clusters (cost %.0f)\n", t.Len(), k, res.Cost)

		sizes := make([]int, k)
		for _, l := range res.Labels {
			sizes[l]++
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Cluster", "Rows", "Mode"})
		for c, mode := range res.Centroids {
			table.Append([]string{strconv.Itoa(c), strconv.Itoa(sizes[c]), strings.Join(mode, " | ")})
		}
		table.Render()

		if clusterOutput != "" {
			if err := t.Save(clusterOutput); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote labelled table to %s\n", clusterOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	addDataFlags(clusterCmd)
	addFitFlags(clusterCmd)
	clusterCmd.Flags().IntVarP(&clusterK, "k", "k", 0, "cluster count (default: config cluster_k)")
	clusterCmd.Flags().StringVarP(&clusterOutput, "output", "o", "", "write the labelled table as CSV")
}
