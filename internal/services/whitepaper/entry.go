package whitepaper

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"icokit/internal/services"
	"icokit/internal/textutil"
)

// Entry is one row of the whitepaper listing.
type Entry struct {
	Name   string
	Ticker string
	Status string
	URL    string
}

// DestPath returns the download target below root without extension.
func (e Entry) DestPath(root string) string {
	return filepath.Join(root, textutil.SanitizeToken(e.Status), textutil.SanitizeFileName(e.Ticker+"_"+e.Name))
}

var requiredColumns = []string{"name", "ticker", "status", "wp_url"}

// ReadEntries parses a CSV listing with at least the columns name, ticker,
// status and wp_url. Column order is free and extra columns are ignored.
func ReadEntries(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrInvalidInput, "whitepaper", "read entries", "empty listing", nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "whitepaper", "read entries", "header", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, services.Wrap(services.ErrInvalidInput, "whitepaper", "read entries", fmt.Sprintf("missing column %q", col), nil)
		}
	}

	field := func(record []string, col string) string {
		if i := index[col]; i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrInvalidInput, "whitepaper", "read entries", "", err)
		}
		entries = append(entries, Entry{
			Name:   field(record, "name"),
			Ticker: field(record, "ticker"),
			Status: field(record, "status"),
			URL:    field(record, "wp_url"),
		})
	}
	return entries, nil
}

// IsDriveURL reports whether url points at Google Drive or Docs.
func IsDriveURL(url string) bool {
	return strings.Contains(url, "drive.google") || strings.Contains(url, "docs.google")
}

// DriveID extracts the file id from a Drive link, taken as the longest
// slash-separated chunk. Ties keep the first chunk.
func DriveID(url string) string {
	best := ""
	for chunk := range strings.SplitSeq(url, "/") {
		if len(chunk) > len(best) {
			best = chunk
		}
	}
	return best
}
