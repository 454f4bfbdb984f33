package volatility

import "errors"

// Sentinel errors returned by the cleaning, derivation and binning steps.
// Callers match on these with errors.Is and convert them into per-symbol
// or per-metric skips.
var (
	// ErrNoData indicates that no usable rows survived cleaning or
	// derivation.
	ErrNoData = errors.New("no usable data")

	// ErrSchemaMismatch indicates that the raw table is missing one or
	// more required columns.
	ErrSchemaMismatch = errors.New("required columns missing")

	// ErrDegenerateDistribution indicates a zero-variance series, which
	// the stddev binning policy cannot handle.
	ErrDegenerateDistribution = errors.New("degenerate distribution: zero variance")
)
