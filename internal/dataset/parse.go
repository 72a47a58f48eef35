package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// maxSafeInteger bounds numeric coercion so numbers stay exact.
const maxSafeInteger = 1 << 53

var floatPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Delimiters tried, in order of preference, when sniffing the header line.
var Delimiters = []rune{',', ';', '\t', '|'}

// ParseError reports the first malformed row of a CSV document.
type ParseError struct {
	Row     int // 1-based data row, 0 for the header
	Line    int // 1-based line in the source
	Message string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s (row %d)", e.Message, e.Row)
	}
	return e.Message
}

// Coerce turns a raw CSV field into a typed cell: empty is null, true/false
// in lower or upper case are booleans, numeric-looking tokens within the safe
// integer range are numbers, everything else stays a string.
func Coerce(raw string) Value {
	switch raw {
	case "":
		return Null()
	case "true", "TRUE":
		return Bool(true)
	case "false", "FALSE":
		return Bool(false)
	}
	if floatPattern.MatchString(raw) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil && f > -maxSafeInteger && f < maxSafeInteger {
			return Number(f)
		}
	}
	return Text(raw)
}

// Parse reads a whole CSV document. The first record is the header, blank
// lines are skipped and every data record must have as many fields as the
// header. Any malformed record fails the whole parse with a *ParseError
// describing the first problem.
func Parse(r io.Reader) (*RowSet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return ParseBytes(content)
}

func ParseBytes(content []byte) (*RowSet, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = SniffDelimiter(content)
	reader.FieldsPerRecord = -1
	// a stray quote inside an unquoted field is read literally
	reader.LazyQuotes = true

	rs := &RowSet{Rows: []Row{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			pe := &ParseError{Row: len(rs.Rows) + 1, Message: err.Error()}
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				pe.Line = csvErr.Line
				pe.Message = csvErr.Err.Error()
			}
			if rs.Header == nil {
				pe.Row = 0
			}
			return nil, pe
		}

		if rs.Header == nil {
			rs.Header = NormalizeHeader(record)
			continue
		}

		line, _ := reader.FieldPos(0)
		if len(record) != len(rs.Header) {
			return nil, &ParseError{
				Row:     len(rs.Rows) + 1,
				Line:    line,
				Message: fieldCountMessage(len(rs.Header), len(record)),
			}
		}

		row := make(Row, len(record))
		for i, field := range record {
			row[rs.Header[i]] = Coerce(field)
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func fieldCountMessage(expected, got int) string {
	if got < expected {
		return fmt.Sprintf("Too few fields: expected %d fields but parsed %d", expected, got)
	}
	return fmt.Sprintf("Too many fields: expected %d fields but parsed %d", expected, got)
}

// NormalizeHeader trims names, names blank columns Column_N and suffixes
// duplicates with _1, _2, ...
func NormalizeHeader(record []string) []string {
	headers := make([]string, len(record))
	counts := make(map[string]int, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		base := h
		for {
			if _, taken := counts[h]; !taken {
				break
			}
			counts[base]++
			h = fmt.Sprintf("%s_%d", base, counts[base])
		}
		counts[h] = 0
		headers[i] = h
	}
	return headers
}

// SniffDelimiter picks the candidate delimiter that occurs most often,
// outside quotes, on the first non-blank line. Comma wins ties.
func SniffDelimiter(content []byte) rune {
	var line []byte
	for len(content) > 0 {
		i := bytes.IndexByte(content, '\n')
		if i < 0 {
			line, content = content, nil
		} else {
			line, content = content[:i], content[i+1:]
		}
		if len(bytes.TrimSpace(line)) > 0 {
			break
		}
		line = nil
	}

	counts := make(map[rune]int, len(Delimiters))
	inQuotes := false
	for _, c := range string(line) {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[c]++
		}
	}

	best := Delimiters[0]
	for _, d := range Delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
