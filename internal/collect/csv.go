// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// listSep joins authors and institutions inside a single CSV cell.
const listSep = "; "

var csvHeader = []string{"title", "abstract", "url", "publication_year", "authors", "institutions"}

// CSVName returns the snapshot file name for keyword at t.
func CSVName(keyword string, t time.Time) string {
	return fmt.Sprintf("papers_%s_%s.csv", types.SanitizeKeyword(keyword), t.Format("20060102_150405"))
}

// WriteCSV writes papers to dir/CSVName(keyword, t) and returns the path.
func WriteCSV(dir, keyword string, papers []types.Paper, t time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating CSV directory: %w", err)
	}
	path := filepath.Join(dir, CSVName(keyword, t))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := EncodeCSV(f, papers); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// EncodeCSV writes a header row followed by one row per paper. A zero
// publication year is written as an empty cell.
func EncodeCSV(w io.Writer, papers []types.Paper) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, p := range papers {
		year := ""
		if p.PublicationYear != 0 {
			year = strconv.Itoa(p.PublicationYear)
		}
		row := []string{
			p.Title,
			p.Abstract,
			p.URL,
			year,
			strings.Join(p.Authors, listSep),
			strings.Join(p.Institutions, listSep),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a snapshot written by WriteCSV.
func ReadCSV(path string) ([]types.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV parses rows produced by EncodeCSV. Columns are located by
// header name.
func DecodeCSV(r io.Reader) ([]types.Paper, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range csvHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("CSV missing column %q", name)
		}
	}

	papers := make([]types.Paper, 0, len(records)-1)
	for line, rec := range records[1:] {
		year := 0
		if s := rec[col["publication_year"]]; s != "" {
			year, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid publication_year %q", line+2, s)
			}
		}
		papers = append(papers, types.Paper{
			Title:           rec[col["title"]],
			Abstract:        rec[col["abstract"]],
			URL:             rec[col["url"]],
			PublicationYear: year,
			Authors:         splitList(rec[col["authors"]]),
			Institutions:    splitList(rec[col["institutions"]]),
		})
	}
	return papers, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}
