package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// isoLayout matches the millisecond UTC form browsers produce with toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a time that encodes as an ISO-8601 UTC string with
// millisecond precision.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(isoLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// Descriptor describes one dataset file.
type Descriptor struct {
	FileName     string    `json:"fileName"`
	Title        string    `json:"title"`
	RelativePath string    `json:"relativePath"`
	Size         int64     `json:"size"`
	LastModified Timestamp `json:"lastModified"`
}

// Manifest is the index of every dataset the site publishes.
type Manifest struct {
	GeneratedAt Timestamp    `json:"generatedAt"`
	FileCount   int          `json:"fileCount"`
	Files       []Descriptor `json:"files"`
}

// Lookup returns the descriptor with the given file name.
func (m *Manifest) Lookup(fileName string) (Descriptor, bool) {
	for _, d := range m.Files {
		if d.FileName == fileName {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Encode writes the manifest as indented JSON.
func (m *Manifest) Encode(w io.Writer) error {
	if m.Files == nil {
		m.Files = []Descriptor{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Decode reads a manifest and checks that file names are unique.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	seen := make(map[string]struct{}, len(m.Files))
	for _, d := range m.Files {
		if strings.TrimSpace(d.FileName) == "" {
			return nil, fmt.Errorf("decode manifest: entry without fileName")
		}
		if _, dup := seen[d.FileName]; dup {
			return nil, fmt.Errorf("decode manifest: duplicate fileName %q", d.FileName)
		}
		seen[d.FileName] = struct{}{}
	}
	if m.Files == nil {
		m.Files = []Descriptor{}
	}
	m.FileCount = len(m.Files)
	return &m, nil
}
