package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/anurag-roy/dv-plot/internal/volatility"
)

// Request is a fully assembled rendering request for one metric of one
// symbol. Assembly performs no I/O; only Render touches the filesystem.
type Request struct {
	Series     volatility.Series
	Bins       volatility.BinSpec
	Stats      volatility.SummaryStats
	Title      string
	OutputPath string
}

// RenderError wraps an I/O or drawing failure for a specific output file.
// The pipeline logs it and moves on; it is never fatal to the run.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

const (
	chartWidth  = 1200
	chartHeight = 700

	// maxBarLabels caps how many bins get an axis label so wide
	// histograms stay readable.
	maxBarLabels = 12
)

var (
	barFill   = drawing.Color{R: 0, G: 191, B: 255, A: 191} // deepskyblue, 0.75 alpha
	barStroke = drawing.ColorBlack
	boxFill   = drawing.Color{R: 245, G: 222, B: 179, A: 128} // wheat, semi-transparent
	boxStroke = drawing.Color{R: 120, G: 120, B: 120, A: 255}
)

// Histogram renders volatility histograms as PNG files. Each call builds
// its own chart object; no drawing state is shared between calls.
type Histogram struct {
	logger *slog.Logger
}

// NewHistogram creates a histogram renderer.
func NewHistogram(logger *slog.Logger) *Histogram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Histogram{logger: logger}
}

// Render draws the histogram for the request and writes it to
// req.OutputPath, creating parent directories as needed.
func (h *Histogram) Render(req Request) error {
	counts := req.Bins.Counts(req.Series.Values)
	if len(counts) == 0 {
		return &RenderError{Path: req.OutputPath, Err: fmt.Errorf("bin spec has no intervals")}
	}

	bars := make([]chart.Value, len(counts))
	labelStep := 1
	if req.Bins.Policy == volatility.PolicySqrt && len(counts) > maxBarLabels {
		labelStep = (len(counts) + maxBarLabels - 1) / maxBarLabels
	}
	for i, c := range counts {
		bar := chart.Value{
			Value: float64(c),
			Style: chart.Style{
				FillColor:   barFill,
				StrokeColor: barStroke,
				StrokeWidth: 1,
			},
		}
		if i%labelStep == 0 {
			bar.Label = edgeLabel(req.Bins, i)
		}
		bars[i] = bar
	}

	barWidth := (chartWidth - 150) / len(bars)
	if barWidth < 4 {
		barWidth = 4
	}

	graph := chart.BarChart{
		Title: req.Title,
		TitleStyle: chart.Style{
			FontSize:  15,
			FontColor: drawing.ColorBlack,
		},
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: 2,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 15, Right: 15, Bottom: 20},
		},
		XAxis: chart.Style{
			FontSize: 9,
		},
		YAxis: chart.YAxis{
			Name: "Frequency",
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	graph.Elements = []chart.Renderable{
		statsBox(req.Stats),
		xAxisLabel(req.Series.Metric.Label()),
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return &RenderError{Path: req.OutputPath, Err: err}
	}

	f, err := os.Create(req.OutputPath)
	if err != nil {
		return &RenderError{Path: req.OutputPath, Err: err}
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return &RenderError{Path: req.OutputPath, Err: err}
	}

	h.logger.Debug("histogram saved",
		"path", req.OutputPath,
		"bins", len(bars),
		"values", len(req.Series.Values))
	return nil
}

// edgeLabel formats the left edge of bin i. The stddev policy labels edges
// to one decimal place so the standard-deviation boundaries read directly
// off the axis.
func edgeLabel(bins volatility.BinSpec, i int) string {
	if bins.Policy == volatility.PolicyStdDev {
		return fmt.Sprintf("%.1f", bins.Edges[i])
	}
	return fmt.Sprintf("%.2f", bins.Edges[i])
}

// statsBox draws the semi-transparent summary box anchored at the top-left
// of the plot area.
func statsBox(stats volatility.SummaryStats) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		lines := []string{
			fmt.Sprintf("Mean: %.4f", stats.Mean),
			fmt.Sprintf("Std Dev: %.4f", stats.StdDev),
			fmt.Sprintf("Median: %.4f", stats.Median),
		}

		r.SetFont(defaults.GetFont())
		r.SetFontSize(10)

		const pad = 8
		const lineGap = 5
		var textWidth, textHeight int
		for _, line := range lines {
			box := r.MeasureText(line)
			if box.Width() > textWidth {
				textWidth = box.Width()
			}
			textHeight += box.Height() + lineGap
		}

		left := canvasBox.Left + 12
		top := canvasBox.Top + 12
		right := left + textWidth + 2*pad
		bottom := top + textHeight + 2*pad - lineGap

		r.SetFillColor(boxFill)
		r.SetStrokeColor(boxStroke)
		r.SetStrokeWidth(1)
		r.MoveTo(left, top)
		r.LineTo(right, top)
		r.LineTo(right, bottom)
		r.LineTo(left, bottom)
		r.Close()
		r.FillStroke()

		r.SetFontColor(drawing.ColorBlack)
		y := top + pad
		for _, line := range lines {
			box := r.MeasureText(line)
			y += box.Height()
			r.Text(line, left+pad, y)
			y += lineGap
		}
	}
}

// xAxisLabel draws the metric name centered under the plot area.
func xAxisLabel(label string) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		r.SetFont(defaults.GetFont())
		r.SetFontSize(13)
		r.SetFontColor(drawing.ColorBlack)
		box := r.MeasureText(label)
		x := canvasBox.Left + (canvasBox.Width()-box.Width())/2
		y := canvasBox.Bottom + box.Height() + 28
		r.Text(label, x, y)
	}
}
