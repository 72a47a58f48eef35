package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"csvdeck/internal/dataset"
)

func sample(t *testing.T) *dataset.RowSet {
	t.Helper()
	rs, err := dataset.ParseBytes([]byte("name,score,active,note\nAna,90,true,\"hi, there\"\nBo,12.5,false,\n"))
	require.NoError(t, err)
	return rs
}

func TestWriteCSV(t *testing.T) {
	rs := sample(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rs.Columns(), rs.Rows))

	want := "name,score,active,note\n" +
		"Ana,90,true,\"hi, there\"\n" +
		"Bo,12.5,false,\n"
	assert.Equal(t, want, buf.String())

	back, err := dataset.ParseBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rs.Rows, back.Rows)
}

func TestXLSXRoundTrip(t *testing.T) {
	rs := sample(t)
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "scores.csv", rs.Columns(), rs.Rows))

	back, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score", "active", "note"}, back.Header)
	require.Len(t, back.Rows, 2)

	assert.Equal(t, dataset.Text("Ana"), back.Rows[0].Get("name"))
	assert.Equal(t, dataset.Number(90), back.Rows[0].Get("score"))
	assert.Equal(t, dataset.Number(12.5), back.Rows[1].Get("score"))
	assert.Equal(t, dataset.Bool(true), back.Rows[0].Get("active"))
	assert.Equal(t, dataset.Text("hi, there"), back.Rows[0].Get("note"))
	assert.True(t, back.Rows[1].Get("note").IsNull())

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "scores", f.GetSheetName(0))
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("name,score\n"))
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "scores", SheetName("scores.xlsx"))
	assert.Equal(t, "a_b_c", SheetName("a/b?c"))
	assert.Equal(t, "Sheet1", SheetName(""))
	assert.Len(t, []rune(SheetName(strings.Repeat("x", 40))), 31)
}

func TestToFileAndReadFile(t *testing.T) {
	rs := sample(t)
	dir := t.TempDir()

	for _, name := range []string{"out.csv", "out.xlsx", "OUT.XLSX"} {
		path := filepath.Join(dir, name)
		require.NoError(t, ToFile(path, rs.Columns(), rs.Rows), name)

		back, err := ReadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, rs.Columns(), back.Columns(), name)
		assert.Len(t, back.Rows, 2, name)
	}

	bad := filepath.Join(dir, "out.txt")
	err := ToFile(bad, rs.Columns(), rs.Rows)
	assert.True(t, errors.Is(err, ErrFormat))
	_, statErr := os.Stat(bad)
	assert.True(t, os.IsNotExist(statErr))

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
