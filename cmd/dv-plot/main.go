package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anurag-roy/dv-plot/internal/config"
	"github.com/anurag-roy/dv-plot/internal/logging"
	"github.com/anurag-roy/dv-plot/internal/nse"
	"github.com/anurag-roy/dv-plot/internal/pipeline"
	"github.com/anurag-roy/dv-plot/internal/render"
	"github.com/anurag-roy/dv-plot/internal/volatility"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	outputDir := flag.String("out", "", "output directory for histogram images (overrides config)")
	lookback := flag.Int("lookback", 0, "lookback window in days (overrides config)")
	binning := flag.String("binning", "", "binning policy: sqrt or stddev (overrides config)")
	symbolList := flag.String("symbols", "", "comma-separated symbols to process instead of the F&O list")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flag overrides sit on top of file and environment.
	if *outputDir != "" {
		cfg.Pipeline.OutputDir = *outputDir
	}
	if *lookback > 0 {
		cfg.Pipeline.LookbackDays = *lookback
	}
	if *binning != "" {
		cfg.Pipeline.BinningPolicy = *binning
	}

	logger := logging.Init(cfg.Logging)

	policy, err := volatility.ParsePolicy(cfg.Pipeline.BinningPolicy)
	if err != nil {
		logger.Error("Invalid binning policy", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := nse.NewClient(nse.Config{
		BaseURL:           cfg.NSE.BaseURL,
		Timeout:           cfg.NSE.Timeout,
		RequestsPerSecond: cfg.NSE.RequestsPerSecond,
		Burst:             cfg.NSE.Burst,
		ChunkDays:         cfg.NSE.ChunkDays,
		MaxRetries:        cfg.NSE.MaxRetries,
	}, logger)

	var symbols pipeline.SymbolSource = client
	if *symbolList != "" {
		symbols = staticSymbols(strings.Split(*symbolList, ","))
	}

	runner := pipeline.NewRunner(symbols, client, render.NewHistogram(logger), pipeline.Options{
		LookbackDays: cfg.Pipeline.LookbackDays,
		OutputDir:    cfg.Pipeline.OutputDir,
		Policy:       policy,
	}, logger)

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Run finished",
		"symbols", summary.Symbols,
		"rendered", summary.Rendered,
		"skipped_fetch", summary.SkippedFetch,
		"skipped_no_data", summary.SkippedNoData,
		"skipped_schema", summary.SkippedSchema,
		"skipped_render", summary.SkippedRender,
	)
}

// staticSymbols satisfies pipeline.SymbolSource with a fixed universe,
// used by the -symbols flag to bypass the F&O list fetch.
type staticSymbols []string

func (s staticSymbols) FNOList(ctx context.Context) ([]string, error) {
	var out []string
	for _, sym := range s {
		if sym = strings.TrimSpace(sym); sym != "" {
			out = append(out, sym)
		}
	}
	return out, nil
}
