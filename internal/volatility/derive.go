package volatility

import (
	"fmt"
	"math"
)

// Metric identifies a volatility measure.
type Metric int

const (
	// MetricDaily is the close-to-close daily return.
	MetricDaily Metric = iota
	// MetricIntraday is the high/low range relative to the previous close.
	MetricIntraday
)

// String returns the short column-style name of the metric.
func (m Metric) String() string {
	switch m {
	case MetricDaily:
		return "dv"
	case MetricIntraday:
		return "iv"
	default:
		return "unknown"
	}
}

// Folder returns the per-metric output directory name.
func (m Metric) Folder() string {
	switch m {
	case MetricDaily:
		return "daily_vix"
	case MetricIntraday:
		return "intra_vix"
	default:
		return "unknown"
	}
}

// Label returns the human-readable metric name used in chart titles and
// axis labels.
func (m Metric) Label() string {
	switch m {
	case MetricDaily:
		return "Daily Volatility (dv)"
	case MetricIntraday:
		return "Intra-day Volatility (iv)"
	default:
		return "unknown"
	}
}

// Series is a derived volatility series, one value per surviving row minus
// any values dropped during derivation.
type Series struct {
	Metric Metric
	Values []float64

	// DroppedNonFinite counts results excluded for being NaN or infinite.
	DroppedNonFinite int
	// DroppedIntegrity counts rows excluded because the source data
	// violated high >= low.
	DroppedIntegrity int
}

// DeriveDaily computes (close - prevClose) / prevClose * 100 per row.
// The cleaned table is not modified; non-finite results are dropped.
// Returns ErrSchemaMismatch if the table lacks the needed columns and
// ErrNoData if nothing survives.
func DeriveDaily(t *CleanedTable) (Series, error) {
	closes, ok := t.Column(ColClose)
	if !ok {
		return Series{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, ColClose)
	}
	prevCloses, ok := t.Column(ColPrevClose)
	if !ok {
		return Series{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, ColPrevClose)
	}

	s := Series{Metric: MetricDaily, Values: make([]float64, 0, t.Len())}
	for i := 0; i < t.Len(); i++ {
		v := (closes[i] - prevCloses[i]) / prevCloses[i] * 100
		if !isFinite(v) {
			s.DroppedNonFinite++
			continue
		}
		s.Values = append(s.Values, v)
	}
	if len(s.Values) == 0 {
		return Series{}, fmt.Errorf("derive %s: %w", s.Metric, ErrNoData)
	}
	return s, nil
}

// DeriveIntraday computes (high - low) / prevClose * 100 per row. Rows
// where high < low are treated as a source-data defect and dropped, counted
// in DroppedIntegrity. Same drop and empty rules as DeriveDaily.
func DeriveIntraday(t *CleanedTable) (Series, error) {
	highs, ok := t.Column(ColHigh)
	if !ok {
		return Series{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, ColHigh)
	}
	lows, ok := t.Column(ColLow)
	if !ok {
		return Series{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, ColLow)
	}
	prevCloses, ok := t.Column(ColPrevClose)
	if !ok {
		return Series{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, ColPrevClose)
	}

	s := Series{Metric: MetricIntraday, Values: make([]float64, 0, t.Len())}
	for i := 0; i < t.Len(); i++ {
		if highs[i] < lows[i] {
			s.DroppedIntegrity++
			continue
		}
		v := (highs[i] - lows[i]) / prevCloses[i] * 100
		if !isFinite(v) {
			s.DroppedNonFinite++
			continue
		}
		s.Values = append(s.Values, v)
	}
	if len(s.Values) == 0 {
		return Series{}, fmt.Errorf("derive %s: %w", s.Metric, ErrNoData)
	}
	return s, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
