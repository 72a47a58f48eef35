package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"csvdeck/internal/logging"
)

const dataExt = ".csv"

var (
	csvSuffix  = regexp.MustCompile(`(?i)\.csv$`)
	whitespace = regexp.MustCompile(`\s+`)
	wordStart  = regexp.MustCompile(`\b\w`)
	separators = strings.NewReplacer("_", " ", "-", " ")
)

// IsDataFile reports whether name carries the CSV extension, ignoring case.
func IsDataFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), dataExt)
}

// FormatTitle turns a file name into a display title:
// annual_report-2023.csv becomes "Annual Report 2023". Only ASCII letters
// that start a word are upper-cased; the rest is left as written.
func FormatTitle(fileName string) string {
	s := separators.Replace(fileName)
	s = csvSuffix.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return wordStart.ReplaceAllStringFunc(s, strings.ToUpper)
}

// SortByTitle orders descriptors by title with a locale collator.
// Equal titles fall back to the file name.
func SortByTitle(files []Descriptor) {
	c := collate.New(language.Und)
	sort.SliceStable(files, func(i, j int) bool {
		if r := c.CompareString(files[i].Title, files[j].Title); r != 0 {
			return r < 0
		}
		return files[i].FileName < files[j].FileName
	})
}

// Builder scans a data directory and produces the manifest.
type Builder struct {
	DataDir    string
	OutputPath string
	// Prefix is the URL directory the data files are published under.
	Prefix      string
	Concurrency int
	Now         func() time.Time
	Logger      *slog.Logger
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) prefix() string {
	if b.Prefix == "" {
		return "data"
	}
	return strings.Trim(b.Prefix, "/")
}

// Build lists the data directory. A missing directory yields an empty
// manifest and a warning.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	logger := logging.OrDefault(b.Logger)

	entries, err := os.ReadDir(b.DataDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read data dir %s: %w", b.DataDir, err)
		}
		logger.Warn("no data directory found, writing empty manifest", "dir", b.DataDir)
		entries = nil
	}

	var candidates []fs.DirEntry
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsDataFile(entry.Name()) {
			continue
		}
		candidates = append(candidates, entry)
	}

	files := make([]Descriptor, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	limit := b.Concurrency
	if limit <= 0 {
		limit = 8
	}
	g.SetLimit(limit)
	for i, entry := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := entry.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", filepath.Join(b.DataDir, entry.Name()), err)
			}
			files[i] = Descriptor{
				FileName:     entry.Name(),
				Title:        FormatTitle(entry.Name()),
				RelativePath: path.Join(b.prefix(), entry.Name()),
				Size:         info.Size(),
				LastModified: NewTimestamp(info.ModTime()),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortByTitle(files)
	logger.Debug("scanned data directory", "dir", b.DataDir, "entries", len(entries), "files", len(files))

	return &Manifest{
		GeneratedAt: NewTimestamp(b.now()),
		FileCount:   len(files),
		Files:       files,
	}, nil
}

// Write builds the manifest and replaces OutputPath with it in full.
func (b *Builder) Write(ctx context.Context) (*Manifest, error) {
	logger := logging.OrDefault(b.Logger)

	dir := filepath.Dir(b.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return nil, fmt.Errorf("create temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Encode(tmp); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return nil, fmt.Errorf("chmod manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.OutputPath); err != nil {
		return nil, fmt.Errorf("replace manifest: %w", err)
	}

	logger.Info("manifest written", "entries", m.FileCount, "path", b.OutputPath)
	return m, nil
}
