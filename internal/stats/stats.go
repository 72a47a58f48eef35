// Package stats computes summary figures over the numeric cells of a column.
package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"csvdeck/internal/dataset"
)

var (
	ErrNoNumeric   = errors.New("no numeric values")
	ErrUnsupported = errors.New("unsupported operation")
)

// Operations lists the names accepted by Compute.
var Operations = []string{"sum", "average", "median", "min", "max", "count", "std"}

// NumericThreshold is the share of non-null cells that must be numbers for a
// column to count as numeric.
const NumericThreshold = 0.8

type Summary struct {
	Column string
	Count  int
	Sum    float64
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Std    float64

	// cells that were present but not numbers
	Skipped int
}

// Values collects the numeric cells of column. Nulls are ignored, other
// kinds are counted as skipped.
func Values(rows []dataset.Row, column string) (values []float64, skipped int) {
	for _, row := range rows {
		cell := row.Get(column)
		if cell.IsNull() {
			continue
		}
		f, ok := cell.AsNumber()
		if !ok {
			skipped++
			continue
		}
		values = append(values, f)
	}
	return values, skipped
}

func Summarize(rows []dataset.Row, column string) (Summary, error) {
	values, skipped := Values(rows, column)
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("%s: %w", column, ErrNoNumeric)
	}
	return Summary{
		Column:  column,
		Count:   len(values),
		Sum:     sum(values),
		Mean:    avg(values),
		Median:  median(values),
		Min:     slices.Min(values),
		Max:     slices.Max(values),
		Std:     std(values),
		Skipped: skipped,
	}, nil
}

// Compute applies a single named operation to values.
func Compute(op string, values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoNumeric
	}
	switch op {
	case "sum":
		return sum(values), nil
	case "average":
		return avg(values), nil
	case "median":
		return median(values), nil
	case "min":
		return slices.Min(values), nil
	case "max":
		return slices.Max(values), nil
	case "count":
		return float64(len(values)), nil
	case "std":
		return std(values), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, op)
}

// NumericColumns returns the columns of rs, in display order, whose non-null
// cells are mostly numbers.
func NumericColumns(rs *dataset.RowSet) []string {
	var out []string
	for _, col := range rs.Columns() {
		if IsNumeric(rs.Rows, col) {
			out = append(out, col)
		}
	}
	return out
}

func IsNumeric(rows []dataset.Row, column string) bool {
	values, skipped := Values(rows, column)
	total := len(values) + skipped
	if total == 0 {
		return false
	}
	return float64(len(values))/float64(total) >= NumericThreshold
}

func sum(vals []float64) float64 {
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s
}

func avg(vals []float64) float64 { return sum(vals) / float64(len(vals)) }

func median(vals []float64) float64 {
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// std is the sample standard deviation; a single value has none.
func std(vals []float64) float64 {
	if len(vals) <= 1 {
		return 0
	}
	mean := avg(vals)
	sumSq := 0.0
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vals)-1))
}
