package volatility

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names as returned by the NSE historical equity endpoint.
const (
	ColClose     = "CH_CLOSING_PRICE"
	ColPrevClose = "CH_PREVIOUS_CLS_PRICE"
	ColHigh      = "CH_TRADE_HIGH_PRICE"
	ColLow       = "CH_TRADE_LOW_PRICE"
	ColTimestamp = "CH_TIMESTAMP"
)

// RequiredColumns are the price columns a full cleaning pass coerces.
var RequiredColumns = []string{ColClose, ColPrevClose, ColHigh, ColLow}

// RawRecord is a single provider row, keyed by provider column name.
// Values arrive JSON-decoded and may be numbers or strings.
type RawRecord map[string]any

// RawTable is an ordered sequence of provider rows, ascending by trade date
// as returned by the provider.
type RawTable []RawRecord

// Columns returns the union of column names across all rows.
func (t RawTable) Columns() map[string]struct{} {
	cols := make(map[string]struct{})
	for _, row := range t {
		for k := range row {
			cols[k] = struct{}{}
		}
	}
	return cols
}

// MissingColumns reports which of the given columns are absent from the table.
func (t RawTable) MissingColumns(required []string) []string {
	cols := t.Columns()
	var missing []string
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// CleanedTable holds numerically coerced price columns with every row
// guaranteed to have a strictly positive previous close. It is never
// mutated after creation; derivations return new Series values.
type CleanedTable struct {
	columns map[string][]float64
	rows    int
}

// Len returns the number of surviving rows.
func (t *CleanedTable) Len() int { return t.rows }

// Column returns the coerced values for a column and whether it exists.
// Cells that failed coercion are NaN.
func (t *CleanedTable) Column(name string) ([]float64, bool) {
	vals, ok := t.columns[name]
	return vals, ok
}

// Clean validates and coerces a raw table into a CleanedTable.
//
// The required columns must all be present, otherwise ErrSchemaMismatch is
// returned. Each required cell is coerced to a float; unparseable content
// becomes NaN rather than an error. Rows whose previous close is missing or
// not strictly positive are dropped (it guards a later division), and the
// previous-close column is always coerced even if the caller omits it from
// required. An empty result yields ErrNoData.
func Clean(raw RawTable, required []string) (*CleanedTable, error) {
	if missing := raw.MissingColumns(required); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	cols := make([]string, 0, len(required)+1)
	seen := make(map[string]bool, len(required)+1)
	for _, c := range required {
		if !seen[c] {
			cols = append(cols, c)
			seen[c] = true
		}
	}
	if !seen[ColPrevClose] {
		cols = append(cols, ColPrevClose)
		seen[ColPrevClose] = true
	}

	columns := make(map[string][]float64, len(cols))
	for _, c := range cols {
		columns[c] = make([]float64, 0, len(raw))
	}

	rows := 0
	for _, row := range raw {
		prevClose := coerceFloat(row[ColPrevClose])
		if math.IsNaN(prevClose) || prevClose <= 0 {
			continue
		}
		for _, c := range cols {
			columns[c] = append(columns[c], coerceFloat(row[c]))
		}
		rows++
	}

	if rows == 0 {
		return nil, ErrNoData
	}
	return &CleanedTable{columns: columns, rows: rows}, nil
}

// coerceFloat converts a raw cell to a float64, returning NaN for anything
// that cannot be interpreted as a number. Thousands separators are stripped
// the same way the provider formats them.
func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if s == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
