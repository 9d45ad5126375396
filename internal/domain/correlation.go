package domain

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// CorrelationColumns are the metrics compared in the correlation matrix.
var CorrelationColumns = []string{ColNewCases, ColNewDeaths, ColNewVaccinations}

// CorrelationMatrix holds pairwise Pearson coefficients. Values[i][j] is the
// correlation of Columns[i] with Columns[j]; entries involving a constant
// column are NaN.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
	// Rows is the number of complete rows the coefficients were computed from.
	Rows int
}

// At returns the coefficient for the named pair.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := indexOf(m.Columns, a), indexOf(m.Columns, b)
	if i < 0 || j < 0 {
		return Missing(), false
	}
	return m.Values[i][j], true
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Correlate drops rows missing any of columns and computes the Pearson
// correlation matrix of the rest. It needs at least two complete rows.
func Correlate(t Table, columns ...string) (CorrelationMatrix, error) {
	if len(columns) == 0 {
		columns = CorrelationColumns
	}

	series := make([][]float64, len(columns))
	for i, col := range columns {
		if !IsNumericColumn(col) {
			return CorrelationMatrix{}, fmt.Errorf("%w: %q is not numeric", ErrMissingColumn, col)
		}
		series[i] = make([]float64, 0, len(t.Rows))
	}

	for r := range t.Rows {
		row := make([]float64, len(columns))
		complete := true
		for i, col := range columns {
			row[i], _ = t.Rows[r].Value(col)
			if IsMissing(row[i]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for i := range columns {
			series[i] = append(series[i], row[i])
		}
	}

	n := len(series[0])
	if n < 2 {
		return CorrelationMatrix{}, fmt.Errorf("%w: %d complete rows for correlation", ErrInsufficientData, n)
	}

	values := make([][]float64, len(columns))
	for i := range values {
		values[i] = make([]float64, len(columns))
	}
	for i := range columns {
		if isConstant(series[i]) {
			values[i][i] = Missing()
		} else {
			values[i][i] = 1
		}
		for j := i + 1; j < len(columns); j++ {
			r := Missing()
			if !isConstant(series[i]) && !isConstant(series[j]) {
				r = stat.Correlation(series[i], series[j], nil)
			}
			values[i][j] = r
			values[j][i] = r
		}
	}

	return CorrelationMatrix{Columns: columns, Values: values, Rows: n}, nil
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
