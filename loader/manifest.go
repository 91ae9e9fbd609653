package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Manifest is the ordered catalog of records. Each record is a fixed number
// of file references (for example an image and its annotation).
type Manifest interface {
	Len() int
	ElementsPerRecord() int
	Record(i int) []string
}

// StaticManifest is an in-memory manifest
type StaticManifest struct {
	records  [][]string
	elements int
}

// NewStaticManifest builds a manifest from records that all have the same
// number of elements.
func NewStaticManifest(records [][]string) (*StaticManifest, error) {
	m := &StaticManifest{records: records}
	for i, rec := range records {
		if len(rec) == 0 {
			return nil, fmt.Errorf("%w: record %d is empty", ErrMalformedManifest, i)
		}
		if i == 0 {
			m.elements = len(rec)
		} else if len(rec) != m.elements {
			return nil, fmt.Errorf("%w: record %d has %d elements, expected %d", ErrMalformedManifest, i, len(rec), m.elements)
		}
	}
	return m, nil
}

func (m *StaticManifest) Len() int               { return len(m.records) }
func (m *StaticManifest) ElementsPerRecord() int { return m.elements }
func (m *StaticManifest) Record(i int) []string  { return m.records[i] }

// LoadCSVManifest reads a comma separated manifest with one record per line.
// Relative paths are resolved against the manifest's directory; lines
// starting with '#' are comments.
func LoadCSVManifest(fs afero.Fs, path string) (*StaticManifest, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.TrimLeadingSpace = true

	base := filepath.Dir(path)
	var records [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedManifest, path, err)
		}

		rec := make([]string, len(row))
		for i, p := range row {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, fmt.Errorf("%w: %s: empty path in row %d", ErrMalformedManifest, path, len(records)+1)
			}
			if !filepath.IsAbs(p) {
				p = filepath.Join(base, p)
			}
			rec[i] = p
		}
		records = append(records, rec)
	}

	return NewStaticManifest(records)
}
