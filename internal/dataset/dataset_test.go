package dataset

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
	}{
		{"", Null()},
		{"true", Bool(true)},
		{"TRUE", Bool(true)},
		{"false", Bool(false)},
		{"FALSE", Bool(false)},
		{"True", Text("True")},
		{"90", Number(90)},
		{"-1.5", Number(-1.5)},
		{".5", Number(0.5)},
		{"5.", Number(5)},
		{"1e3", Number(1000)},
		{" 42 ", Number(42)},
		{"+3", Text("+3")},
		{"0x1F", Text("0x1F")},
		{"NaN", Text("NaN")},
		{"9007199254740993", Text("9007199254740993")},
		{"Ana", Text("Ana")},
		{"2023-01-02", Text("2023-01-02")},
	}
	for _, tt := range tests {
		got := Coerce(tt.raw)
		assert.Equal(t, tt.want.Kind(), got.Kind(), "raw %q", tt.raw)
		assert.Equal(t, 0, Compare(tt.want, got), "raw %q", tt.raw)
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "", Null().String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "90", Number(90).String())
	assert.Equal(t, "0.1", Number(0.1).String())
	assert.Equal(t, "1e+21", Number(1e21).String())
	assert.Equal(t, "1e-7", Number(1e-7).String())
	assert.Equal(t, "-2.5e-8", Number(-2.5e-8).String())
	assert.Equal(t, "1.5e-10", Number(1.5e-10).String())
	assert.Equal(t, "Bo", Text("Bo").String())
}

func TestValue_JSON(t *testing.T) {
	row := Row{"name": Text("Ana"), "score": Number(90), "ok": Bool(true), "note": Null()}
	raw, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ana","score":90,"ok":true,"note":null}`, string(raw))
}

func TestCompare_KindOrder(t *testing.T) {
	ordered := []Value{Null(), Bool(false), Bool(true), Number(-3), Number(2), Text("A"), Text("a")}
	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			switch {
			case i < j:
				assert.Equal(t, -1, got, "%v vs %v", ordered[i], ordered[j])
			case i > j:
				assert.Equal(t, 1, got, "%v vs %v", ordered[i], ordered[j])
			default:
				assert.Equal(t, 0, got)
			}
		}
	}
}

func TestParse_Scores(t *testing.T) {
	rs, err := Parse(strings.NewReader("name,score\nAna,90\n\nBo,75\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "score"}, rs.Header)
	assert.Equal(t, []string{"name", "score"}, rs.Columns())
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, Text("Ana"), rs.Rows[0].Get("name"))
	assert.Equal(t, Number(75), rs.Rows[1].Get("score"))
}

func TestParse_EmptyCellsAreNull(t *testing.T) {
	rs, err := Parse(strings.NewReader("a,b,c\n1,,x\n"))
	require.NoError(t, err)
	assert.True(t, rs.Rows[0].Get("b").IsNull())
	assert.Equal(t, KindNumber, rs.Rows[0].Get("a").Kind())
}

func TestParse_EmptyDocument(t *testing.T) {
	rs, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.Empty(t, rs.Columns())

	rs, err = Parse(strings.NewReader("only,header\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.Empty(t, rs.Columns())
}

func TestParse_FieldCountMismatchFailsWholeParse(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b,c\n1,2,3\n4,5\n6,7,8,9\n"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Too few fields: expected 3 fields but parsed 2", pe.Message)
	assert.Equal(t, 2, pe.Row)
	assert.Equal(t, 3, pe.Line)
	assert.Contains(t, pe.Error(), "row 2")

	_, err = Parse(strings.NewReader("a,b\n1,2,3\n"))
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Too many fields: expected 2 fields but parsed 3", pe.Message)
}

func TestParse_QuoteErrorIsParseError(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b\n\"unterminated,1\n"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.NotEmpty(t, pe.Message)
}

func TestParse_BareQuoteIsText(t *testing.T) {
	rs, err := ParseBytes([]byte("name,height\nBob,5'10\"\nAna,6 ft\n"))
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, Text(`5'10"`), rs.Rows[0].Get("height"))
	assert.Equal(t, Text("6 ft"), rs.Rows[1].Get("height"))
}

func TestParse_QuotedFieldsAndBOM(t *testing.T) {
	doc := "\ufeffcity,note\n\"Paris, FR\",\"said \"\"hi\"\"\"\n"
	rs, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "note"}, rs.Header)
	assert.Equal(t, Text("Paris, FR"), rs.Rows[0].Get("city"))
	assert.Equal(t, Text(`said "hi"`), rs.Rows[0].Get("note"))
}

func TestParse_HeaderNormalization(t *testing.T) {
	rs, err := Parse(strings.NewReader(" id ,,id,id_1,id\n1,2,3,4,5\n"))
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"id", "Column_2", "id_1", "id_1_1", "id_2"}, rs.Header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, rs.Header, rs.Columns())
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', SniffDelimiter([]byte("a,b,c\n")))
	assert.Equal(t, ';', SniffDelimiter([]byte("\n\na;b;c\n1;2;3")))
	assert.Equal(t, '\t', SniffDelimiter([]byte("a\tb\n")))
	assert.Equal(t, '|', SniffDelimiter([]byte("a|b|c")))
	assert.Equal(t, ',', SniffDelimiter([]byte(`"x;y;z",b`)))
	assert.Equal(t, ',', SniffDelimiter(nil))

	rs, err := Parse(strings.NewReader("name;score\nAna;90\n"))
	require.NoError(t, err)
	assert.Equal(t, Number(90), rs.Rows[0].Get("score"))
}

func TestColumns_FromFirstRowOnly(t *testing.T) {
	rs := &RowSet{
		Header: []string{"b", "a"},
		Rows: []Row{
			{"a": Number(1), "b": Number(2), "z": Text("extra")},
			{"a": Number(3), "c": Number(4)},
		},
	}
	assert.Equal(t, []string{"b", "a", "z"}, rs.Columns())
	assert.True(t, rs.Rows[1].Get("b").IsNull(), "a missing key reads as null")

	var nilSet *RowSet
	assert.Nil(t, nilSet.Columns())
	assert.Equal(t, 0, nilSet.Len())
}
