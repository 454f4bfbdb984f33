package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/anurag-roy/dv-plot/internal/nse"
	"github.com/anurag-roy/dv-plot/internal/render"
	"github.com/anurag-roy/dv-plot/internal/volatility"
)

// SymbolSource supplies the universe of symbols to process. Failure or an
// empty universe is fatal to the whole run.
type SymbolSource interface {
	FNOList(ctx context.Context) ([]string, error)
}

// HistoryProvider supplies raw daily trading records for one symbol.
type HistoryProvider interface {
	EquityHistory(ctx context.Context, symbol, series string, from, to time.Time) (volatility.RawTable, error)
}

// Renderer consumes an assembled rendering request and writes the image.
type Renderer interface {
	Render(req render.Request) error
}

// ErrEmptyUniverse is returned when the symbol source yields no symbols.
var ErrEmptyUniverse = errors.New("symbol universe is empty")

// Options configures a pipeline run.
type Options struct {
	LookbackDays int
	OutputDir    string
	Policy       volatility.Policy
}

// RunSummary aggregates per-symbol and per-metric outcomes of a run.
type RunSummary struct {
	Symbols          int
	Rendered         int
	SkippedFetch     int
	SkippedNoData    int
	SkippedSchema    int
	SkippedRender    int
	DegenerateSeries int
}

// Runner drives the volatility pipeline: fetch, clean, derive, bin, render,
// one symbol at a time, each metric at a time. All per-symbol and
// per-metric failures become logged skips; no state is shared between
// iterations.
type Runner struct {
	symbols  SymbolSource
	history  HistoryProvider
	renderer Renderer
	opts     Options
	logger   *slog.Logger

	// now is the run clock, swappable in tests.
	now func() time.Time
}

// NewRunner creates a pipeline runner.
func NewRunner(symbols SymbolSource, history HistoryProvider, renderer Renderer, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 365
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	return &Runner{
		symbols:  symbols,
		history:  history,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// metrics in processing order; daily failing does not block intraday and
// vice versa.
var metrics = []struct {
	metric volatility.Metric
	derive func(*volatility.CleanedTable) (volatility.Series, error)
}{
	{volatility.MetricDaily, volatility.DeriveDaily},
	{volatility.MetricIntraday, volatility.DeriveIntraday},
}

// Run processes the whole symbol universe once. The only fatal condition
// is a failing or empty symbol list; everything else degrades to skips
// recorded in the summary.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	symbols, err := r.symbols.FNOList(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch symbol list: %w", err)
	}
	if len(symbols) == 0 {
		return summary, ErrEmptyUniverse
	}

	today := r.now()
	from := today.AddDate(0, 0, -r.opts.LookbackDays)
	runDir := filepath.Join(r.opts.OutputDir, today.Format("2006-01-02"))

	r.logger.InfoContext(ctx, "starting volatility run",
		"symbols", len(symbols),
		"lookback_days", r.opts.LookbackDays,
		"binning", r.opts.Policy.String(),
		"run_dir", runDir,
	)

	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Symbols++
		r.logger.InfoContext(ctx, "processing symbol",
			"symbol", symbol,
			"progress", fmt.Sprintf("%d/%d", i+1, len(symbols)),
		)
		r.processSymbol(ctx, symbol, from, today, runDir, &summary)
	}

	r.logger.InfoContext(ctx, "processing complete",
		"symbols", summary.Symbols,
		"rendered", summary.Rendered,
		"skipped_fetch", summary.SkippedFetch,
		"skipped_no_data", summary.SkippedNoData,
		"skipped_schema", summary.SkippedSchema,
		"skipped_render", summary.SkippedRender,
	)
	return summary, nil
}

func (r *Runner) processSymbol(ctx context.Context, symbol string, from, to time.Time, runDir string, summary *RunSummary) {
	raw, err := r.history.EquityHistory(ctx, symbol, nse.SeriesEquity, from, to)
	if err != nil {
		summary.SkippedFetch++
		r.logger.WarnContext(ctx, "skipping symbol: fetch failed", "symbol", symbol, "error", err)
		return
	}
	if len(raw) == 0 {
		summary.SkippedNoData++
		r.logger.WarnContext(ctx, "skipping symbol: no data returned", "symbol", symbol)
		return
	}

	cleaned, err := volatility.Clean(raw, volatility.RequiredColumns)
	switch {
	case errors.Is(err, volatility.ErrSchemaMismatch):
		summary.SkippedSchema++
		r.logger.WarnContext(ctx, "skipping symbol: schema mismatch", "symbol", symbol, "error", err)
		return
	case errors.Is(err, volatility.ErrNoData):
		summary.SkippedNoData++
		r.logger.WarnContext(ctx, "skipping symbol: no usable rows after cleaning", "symbol", symbol)
		return
	case err != nil:
		summary.SkippedNoData++
		r.logger.WarnContext(ctx, "skipping symbol: cleaning failed", "symbol", symbol, "error", err)
		return
	}

	rangeLabel := fmt.Sprintf("%s to %s", from.Format(nse.DateFormat), to.Format(nse.DateFormat))

	for _, m := range metrics {
		series, err := m.derive(cleaned)
		if err != nil {
			summary.SkippedNoData++
			r.logger.WarnContext(ctx, "skipping metric: derivation failed",
				"symbol", symbol, "metric", m.metric.String(), "error", err)
			continue
		}
		if series.DroppedIntegrity > 0 {
			r.logger.WarnContext(ctx, "dropped rows violating high >= low",
				"symbol", symbol, "metric", m.metric.String(), "rows", series.DroppedIntegrity)
		}

		bins, err := r.binSeries(ctx, symbol, series, summary)
		if err != nil {
			continue
		}

		req := render.Request{
			Series: series,
			Bins:   bins,
			Stats:  volatility.Summarize(series.Values),
			Title:  fmt.Sprintf("%s Histogram for %s (%s)", m.metric.Label(), symbol, rangeLabel),
			OutputPath: filepath.Join(runDir, m.metric.Folder(),
				fmt.Sprintf("%s_%s.png", SanitizeSymbol(symbol), m.metric.Folder())),
		}
		if err := r.renderer.Render(req); err != nil {
			summary.SkippedRender++
			r.logger.ErrorContext(ctx, "skipping metric: render failed",
				"symbol", symbol, "metric", m.metric.String(), "error", err)
			continue
		}
		summary.Rendered++
		r.logger.InfoContext(ctx, "histogram saved",
			"symbol", symbol, "metric", m.metric.String(), "path", req.OutputPath)
	}
}

// binSeries applies the configured policy, falling back from stddev to
// sqrt bins when the series has zero variance.
func (r *Runner) binSeries(ctx context.Context, symbol string, series volatility.Series, summary *RunSummary) (volatility.BinSpec, error) {
	bins, err := volatility.Bins(r.opts.Policy, series.Values)
	if errors.Is(err, volatility.ErrDegenerateDistribution) {
		summary.DegenerateSeries++
		r.logger.WarnContext(ctx, "degenerate distribution, falling back to sqrt bins",
			"symbol", symbol, "metric", series.Metric.String())
		bins, err = volatility.SqrtBins(series.Values)
	}
	if err != nil {
		summary.SkippedNoData++
		r.logger.WarnContext(ctx, "skipping metric: binning failed",
			"symbol", symbol, "metric", series.Metric.String(), "error", err)
		return volatility.BinSpec{}, err
	}
	return bins, nil
}
