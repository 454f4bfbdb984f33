// Package volatility implements the data-cleaning and statistical-binning
// core of the histogram pipeline.
//
// Raw provider rows flow through three steps, each a pure function of its
// input:
//
//  1. Clean: coerce textual price columns to numbers and drop rows whose
//     previous close is missing or not strictly positive, since it divides
//     every later formula.
//  2. DeriveDaily / DeriveIntraday: turn a cleaned table into a volatility
//     series, (close-prev)/prev*100 and (high-low)/prev*100 respectively,
//     dropping non-finite results.
//  3. Bins: construct histogram bin edges under one of two policies, the
//     fixed-count sqrt rule or standard-deviation-aligned edges around the
//     mean.
//
// Failures surface as the sentinel errors ErrSchemaMismatch, ErrNoData and
// ErrDegenerateDistribution, which callers convert into per-symbol or
// per-metric skips.
package volatility
