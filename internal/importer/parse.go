package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row maps header names to the trimmed raw values of one data line.
type Row map[string]string

// Get returns the trimmed value for key or "" when the column is absent.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Parse splits text on line boundaries and keys each data line by the first
// non-blank line. Each line is parsed on its own: quoted fields may contain commas
// and "" escapes, and an unterminated quote runs to the end of its line only.
// Lines shorter than the header get "" for the missing columns; surplus fields
// are dropped. Text with no data lines yields an empty slice and no error.
func Parse(text string) ([]Row, error) {
	var (
		header []string
		rows   = []Row{}
	)
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("importer: parse line %d: %w", n+1, err)
		}
		if blank(record) {
			continue
		}
		if header == nil {
			header = make([]string, len(record))
			for i, name := range record {
				header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
			}
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			row[name] = ""
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return record, err
}

func blank(record []string) bool {
	return len(record) == 0 || len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
