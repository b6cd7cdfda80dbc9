// Package ingest computes row, column and missing-value statistics for
// uploaded CSV content.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Stats holds the shape of a parsed CSV file
type Stats struct {
	Rows              int
	Columns           int
	MissingCount      int64
	MissingPercentage float64
}

// ParseError is returned when content cannot be read as delimited text
type ParseError struct {
	Line int // 0 when the failure is not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrNotText is wrapped by ParseError when the content is not valid UTF-8
var ErrNotText = errors.New("content is not valid UTF-8 text")

// Parse reads content as CSV. The first record is the header and fixes the
// column count; every later record is a data row. A field counts as missing
// when it is absent, empty or whitespace-only. Rows of the wrong length are
// tolerated.
func Parse(content []byte) (Stats, error) {
	if !utf8.Valid(content) {
		return Stats{}, &ParseError{Err: ErrNotText}
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var stats Stats
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return Stats{}, &ParseError{Line: perr.Line, Err: perr.Err}
			}
			return Stats{}, &ParseError{Err: err}
		}

		if header {
			stats.Columns = len(record)
			header = false
			continue
		}

		stats.Rows++
		for i := 0; i < stats.Columns; i++ {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				stats.MissingCount++
			}
		}
	}

	denominator := float64(max(1, stats.Rows)) * float64(max(1, stats.Columns))
	stats.MissingPercentage = float64(stats.MissingCount) / denominator * 100.0
	return stats, nil
}

// FormatPercentage renders a percentage with two decimals and a trailing '%'
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}
