// Package importer reads word lists from spreadsheets.
//
// Both .xlsx and .csv files use the same column layout: word, hint,
// category and difficulty. A first row whose first cell is "word" or
// "palabra" is treated as a header and skipped.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the container of an uploaded word list
type Format int

const (
	FormatXLSX Format = iota + 1
	FormatCSV
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv
var ErrUnsupportedFormat = errors.New("unsupported file format, use .xlsx or .csv")

// DefaultDifficulty is used when the difficulty cell is empty
const DefaultDifficulty = 1

// Row is one word line of an imported file. Line is 1-based and counts the header.
type Row struct {
	Line       int
	Word       string
	Hint       string
	Category   string
	Difficulty int
}

// FormatFromName picks the format from a file name's extension
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return 0, ErrUnsupportedFormat
	}
}

// Read parses every word row of r
func Read(r io.Reader, format Format) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return records, nil
}

func toRows(records [][]string) []Row {
	rows := make([]Row, 0, len(records))
	for i, record := range records {
		if i == 0 && isHeader(record) {
			continue
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, Row{
			Line:       i + 1,
			Word:       cell(record, 0),
			Hint:       cell(record, 1),
			Category:   cell(record, 2),
			Difficulty: parseDifficulty(cell(record, 3)),
		})
	}
	return rows
}

func cell(record []string, idx int) string {
	if idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func isHeader(record []string) bool {
	switch strings.ToLower(cell(record, 0)) {
	case "word", "palabra":
		return true
	}
	return false
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseDifficulty returns 0 for unparsable values so validation rejects the row
func parseDifficulty(s string) int {
	if s == "" {
		return DefaultDifficulty
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
