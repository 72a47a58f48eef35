package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvdeck/internal/dataset"
)

func parse(t *testing.T, doc string) *dataset.RowSet {
	t.Helper()
	rs, err := dataset.ParseBytes([]byte(doc))
	require.NoError(t, err)
	return rs
}

func TestSummarize(t *testing.T) {
	rs := parse(t, "name,score\nAna,90\nBo,75\nCy,\nDi,n/a\nEd,60\n")

	s, err := Summarize(rs.Rows, "score")
	require.NoError(t, err)
	assert.Equal(t, "score", s.Column)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 225.0, s.Sum)
	assert.Equal(t, 75.0, s.Mean)
	assert.Equal(t, 75.0, s.Median)
	assert.Equal(t, 60.0, s.Min)
	assert.Equal(t, 90.0, s.Max)
	assert.InDelta(t, 15.0, s.Std, 1e-9)
}

func TestSummarize_NoNumbers(t *testing.T) {
	rs := parse(t, "name,score\nAna,\nBo,\n")
	_, err := Summarize(rs.Rows, "name")
	assert.True(t, errors.Is(err, ErrNoNumeric))
	_, err = Summarize(rs.Rows, "score")
	assert.True(t, errors.Is(err, ErrNoNumeric))
}

func TestCompute(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	cases := map[string]float64{
		"sum":     10,
		"average": 2.5,
		"median":  2.5,
		"min":     1,
		"max":     4,
		"count":   4,
	}
	for op, want := range cases {
		got, err := Compute(op, values)
		require.NoError(t, err, op)
		assert.Equal(t, want, got, op)
	}

	got, err := Compute("std", values)
	require.NoError(t, err)
	assert.InDelta(t, 1.2909944, got, 1e-6)

	got, err = Compute("std", []float64{7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	assert.Equal(t, []float64{4, 1, 3, 2}, values, "median must not reorder the input")

	_, err = Compute("mode", values)
	assert.True(t, errors.Is(err, ErrUnsupported))
	_, err = Compute("sum", nil)
	assert.True(t, errors.Is(err, ErrNoNumeric))
}

func TestNumericColumns(t *testing.T) {
	rs := parse(t, "id,label,mostly,flag\n"+
		"1,a,1,true\n"+
		"2,b,2,false\n"+
		"3,c,3,true\n"+
		"4,d,4,false\n"+
		"5,e,x,true\n")
	assert.Equal(t, []string{"id", "mostly"}, NumericColumns(rs))

	sparse := parse(t, "a,b\n1,x\n,y\n")
	assert.Equal(t, []string{"a"}, NumericColumns(sparse))

	assert.Empty(t, NumericColumns(&dataset.RowSet{}))
}
