// Package render draws the sweep diagnostics as PNG images (gonum/plot) and
// interactive HTML pages (go-echarts).
package render

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/surveyclust/internal/evaluate"
	"github.com/KaramelBytes/surveyclust/internal/utils"
)

const (
	ElbowTitle     = "Optimization: Elbow Method vs. Silhouette Score"
	costLabel      = "Cost (Dissimilarity)"
	silhouetteAxis = "Silhouette Score (Hamming)"
)

var (
	tabBlue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	tabPurple = color.RGBA{R: 148, G: 103, B: 189, A: 255}
	tabRed    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	dashed    = []vg.Length{vg.Points(5), vg.Points(5)}
)

// Options controls chart geometry and the stability y window.
type Options struct {
	WidthIn  float64
	HeightIn float64
	// YMin and YMax fix the stability chart's y axis; equal values mean auto.
	YMin float64
	YMax float64
	// NInit is shown in the stability chart title.
	NInit int
	HTML  bool
}

// DefaultOptions returns a 10x6 inch canvas with the 53000..58000 cost window.
func DefaultOptions() Options {
	return Options{WidthIn: 10, HeightIn: 6, YMin: 53000, YMax: 58000, NInit: 50, HTML: true}
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.WidthIn, o.HeightIn
	if w <= 0 {
		w = 10
	}
	if h <= 0 {
		h = 6
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// StabilityTitle returns the stability chart title for k.
func StabilityTitle(k, nInit int) string {
	return fmt.Sprintf("Model Stability Check (k=%d, n_init=%d)", k, nInit)
}

// Elbow writes elbow.png, and elbow.html when opt.HTML is set, into dir.
func Elbow(dir string, recs []evaluate.Record, opt Options) ([]string, error) {
	png := filepath.Join(dir, "elbow.png")
	if err := ElbowPNG(png, recs, opt); err != nil {
		return nil, err
	}
	out := []string{png}
	if opt.HTML {
		html := filepath.Join(dir, "elbow.html")
		if err := ElbowHTML(html, recs); err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

// Stability writes stability.png, and stability.html when opt.HTML is set, into dir.
func Stability(dir string, res *evaluate.StabilityResult, opt Options) ([]string, error) {
	png := filepath.Join(dir, "stability.png")
	if err := StabilityPNG(png, res, opt); err != nil {
		return nil, err
	}
	out := []string{png}
	if opt.HTML {
		html := filepath.Join(dir, "stability.html")
		if err := StabilityHTML(html, res, opt); err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

// ElbowPNG draws cost and silhouette against k as two aligned panels that
// share the k axis.
func ElbowPNG(path string, recs []evaluate.Record, opt Options) error {
	if len(recs) == 0 {
		return fmt.Errorf("elbow chart: no records")
	}
	costs := make(plotter.XYs, len(recs))
	sils := make(plotter.XYs, len(recs))
	ticks := make([]plot.Tick, len(recs))
	for i, r := range recs {
		costs[i] = plotter.XY{X: float64(r.K), Y: r.Cost}
		sils[i] = plotter.XY{X: float64(r.K), Y: r.Silhouette}
		ticks[i] = plot.Tick{Value: float64(r.K), Label: strconv.Itoa(r.K)}
	}

	top := plot.New()
	top.Title.Text = ElbowTitle
	top.Title.TextStyle.Font.Size = vg.Points(14)
	top.Y.Label.Text = costLabel
	top.Y.Label.TextStyle.Color = tabBlue
	top.X.Tick.Marker = plot.ConstantTicks(ticks)
	costLine, costPts, err := plotter.NewLinePoints(costs)
	if err != nil {
		return fmt.Errorf("elbow chart: %w", err)
	}
	costLine.Color = tabBlue
	costLine.Width = vg.Points(3)
	costPts.GlyphStyle.Color = tabBlue
	costPts.GlyphStyle.Shape = draw.CircleGlyph{}
	costPts.GlyphStyle.Radius = vg.Points(4)
	top.Add(plotter.NewGrid(), costLine, costPts)
	top.Legend.Add("Cost (Elbow)", costLine, costPts)
	top.Legend.Top = true

	bottom := plot.New()
	bottom.X.Label.Text = "Number of Clusters (k)"
	bottom.Y.Label.Text = silhouetteAxis
	bottom.Y.Label.TextStyle.Color = tabPurple
	bottom.X.Tick.Marker = plot.ConstantTicks(ticks)
	silLine, silPts, err := plotter.NewLinePoints(sils)
	if err != nil {
		return fmt.Errorf("elbow chart: %w", err)
	}
	silLine.Color = tabPurple
	silLine.Width = vg.Points(2)
	silLine.Dashes = dashed
	silPts.GlyphStyle.Color = tabPurple
	silPts.GlyphStyle.Shape = draw.SquareGlyph{}
	silPts.GlyphStyle.Radius = vg.Points(4)
	bottom.Add(plotter.NewGrid(), silLine, silPts)
	bottom.Legend.Add("Silhouette", silLine, silPts)
	bottom.Legend.Top = true

	w, h := opt.size()
	img := vgimg.New(w, h)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadX: vg.Millimeter, PadY: vg.Millimeter * 3, PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2, PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 4}
	plots := [][]*plot.Plot{{top}, {bottom}}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		plots[j][0].Draw(canvases[j][0])
	}
	return writePNG(path, img)
}

// StabilityPNG draws the cost of each seeded run with a dashed mean line.
func StabilityPNG(path string, res *evaluate.StabilityResult, opt Options) error {
	if res == nil || len(res.Costs) == 0 {
		return fmt.Errorf("stability chart: no runs")
	}
	pts := make(plotter.XYs, len(res.Costs))
	for i, c := range res.Costs {
		pts[i] = plotter.XY{X: float64(i), Y: c}
	}

	p := plot.New()
	p.Title.Text = StabilityTitle(res.K, opt.NInit)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Run Number (Random Seed)"
	p.Y.Label.Text = costLabel
	p.Y.Label.TextStyle.Color = tabBlue

	line, glyphs, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("stability chart: %w", err)
	}
	line.Color = tabPurple
	line.Width = vg.Points(2)
	glyphs.GlyphStyle.Color = tabPurple
	glyphs.GlyphStyle.Shape = draw.CircleGlyph{}
	glyphs.GlyphStyle.Radius = vg.Points(3)

	last := float64(len(res.Costs) - 1)
	mean, err := plotter.NewLine(plotter.XYs{{X: 0, Y: res.Mean}, {X: last, Y: res.Mean}})
	if err != nil {
		return fmt.Errorf("stability chart: %w", err)
	}
	mean.Color = color.NRGBA{R: tabRed.R, G: tabRed.G, B: tabRed.B, A: 178}
	mean.Dashes = dashed

	p.Add(plotter.NewGrid(), line, glyphs, mean)
	p.Legend.Add("Run Cost", line, glyphs)
	p.Legend.Add(fmt.Sprintf("Mean Cost (%.0f)", res.Mean), mean)
	p.Legend.Top = true
	if opt.YMax > opt.YMin {
		p.Y.Min = opt.YMin
		p.Y.Max = opt.YMax
	}

	w, h := opt.size()
	img := vgimg.New(w, h)
	p.Draw(draw.New(img))
	return writePNG(path, img)
}

func writePNG(path string, img *vgimg.Canvas) error {
	err := utils.SafeWriteWith(path, func(w io.Writer) error {
		_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
