package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/surveyclust/internal/evaluate"
	"github.com/KaramelBytes/surveyclust/internal/utils"
)

const (
	hexBlue   = "#1f77b4"
	hexPurple = "#9467bd"
	hexRed    = "#d62728"
)

// ElbowHTML writes an interactive chart with cost on the left axis and
// silhouette on the right axis.
func ElbowHTML(path string, recs []evaluate.Record) error {
	if len(recs) == 0 {
		return fmt.Errorf("elbow chart: no records")
	}
	ks := make([]string, len(recs))
	costs := make([]opts.LineData, len(recs))
	sils := make([]opts.LineData, len(recs))
	for i, r := range recs {
		ks[i] = strconv.Itoa(r.K)
		costs[i] = opts.LineData{Value: r.Cost}
		sils[i] = opts.LineData{Value: r.Silhouette}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: ElbowTitle, Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: ElbowTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Number of Clusters (k)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: costLabel, Min: "dataMin"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: silhouetteAxis, Position: "right"})
	line.SetXAxis(ks).
		AddSeries("Cost (Elbow)", costs,
			charts.WithLineChartOpts(opts.LineChart{Symbol: "circle", SymbolSize: 8}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexBlue, Width: 3}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexBlue})).
		AddSeries("Silhouette", sils,
			charts.WithLineChartOpts(opts.LineChart{Symbol: "rect", SymbolSize: 8, YAxisIndex: 1}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexPurple, Width: 2, Type: "dashed"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexPurple}))
	return renderHTML(path, line)
}

// StabilityHTML writes an interactive run-cost chart with a mean line.
func StabilityHTML(path string, res *evaluate.StabilityResult, opt Options) error {
	if res == nil || len(res.Costs) == 0 {
		return fmt.Errorf("stability chart: no runs")
	}
	runs := make([]string, len(res.Costs))
	costs := make([]opts.LineData, len(res.Costs))
	means := make([]opts.LineData, len(res.Costs))
	for i, c := range res.Costs {
		runs[i] = strconv.Itoa(i)
		costs[i] = opts.LineData{Value: c}
		means[i] = opts.LineData{Value: res.Mean}
	}

	y := opts.YAxis{Name: costLabel, Min: "dataMin"}
	if opt.YMax > opt.YMin {
		y.Min, y.Max = opt.YMin, opt.YMax
	}
	title := StabilityTitle(res.K, opt.NInit)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("mean %.0f, std dev %.0f", res.Mean, res.StdDev)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Run Number (Random Seed)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(y),
	)
	line.SetXAxis(runs).
		AddSeries("Run Cost", costs,
			charts.WithLineChartOpts(opts.LineChart{Symbol: "circle", SymbolSize: 6}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexPurple, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexPurple})).
		AddSeries(fmt.Sprintf("Mean Cost (%.0f)", res.Mean), means,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexRed, Width: 2, Type: "dashed"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexRed}))
	return renderHTML(path, line)
}

func renderHTML(path string, line *charts.Line) error {
	err := utils.SafeWriteWith(path, func(w io.Writer) error {
		return line.Render(w)
	})
	if err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
