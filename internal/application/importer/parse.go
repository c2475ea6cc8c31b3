package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format is an accepted upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatJSON Format = "json"
)

var suffixFormats = []struct {
	suffix string
	format Format
}{
	{".csv", FormatCSV},
	{".xlsx", FormatXLSX},
	{".xls", FormatXLS},
	{".json", FormatJSON},
}

// ErrUnsupportedFormat is returned for filenames outside the accepted suffix set.
var ErrUnsupportedFormat = errors.New("Unsupported file format")

// ParseError is a batch-level failure to read an upload.
type ParseError struct {
	Format Format
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot read %s file: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot read %s file: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DetectFormat picks the format from the filename suffix, case-insensitively.
func DetectFormat(filename string) (Format, error) {
	lower := strings.ToLower(strings.TrimSpace(filename))
	for _, sf := range suffixFormats {
		if strings.HasSuffix(lower, sf.suffix) {
			return sf.format, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// Parse reads raw rows from an upload. The format is detected before any parsing.
func Parse(filename string, content []byte) ([]Row, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return parseCSV(content)
	case FormatXLSX:
		return parseXLSX(content)
	case FormatXLS:
		return parseXLS(content)
	default:
		return parseJSON(content)
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func parseCSV(content []byte) ([]Row, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, &ParseError{Format: FormatCSV, Reason: "file is not valid UTF-8"}
	}
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Reason: "malformed CSV", Err: err}
	}
	return tableRows(FormatCSV, records)
}

func parseXLSX(content []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Reason: "not a readable workbook", Err: err}
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: FormatXLSX, Reason: "workbook has no sheets"}
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Reason: "cannot read first sheet", Err: err}
	}
	return tableRows(FormatXLSX, records)
}

func parseXLS(content []byte) (rows []Row, err error) {
	// the BIFF reader panics on some truncated files
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, &ParseError{Format: FormatXLS, Reason: fmt.Sprintf("corrupt workbook: %v", r)}
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, &ParseError{Format: FormatXLS, Reason: "not a readable workbook", Err: err}
	}
	if wb == nil {
		return nil, &ParseError{Format: FormatXLS, Reason: "not a readable workbook"}
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &ParseError{Format: FormatXLS, Reason: "workbook has no sheets"}
	}
	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		records = append(records, cells)
	}
	return tableRows(FormatXLS, records)
}

// tableRows turns a header row plus data rows into keyed rows. Fully blank lines are
// skipped; short rows leave trailing columns absent.
func tableRows(format Format, records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, &ParseError{Format: format, Reason: "file has no header row"}
	}
	header := make([]string, len(records[0]))
	hasHeader := false
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] != "" {
			hasHeader = true
		}
	}
	if !hasHeader {
		return nil, &ParseError{Format: format, Reason: "file has no header row"}
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if h == "" || i >= len(rec) {
				continue
			}
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseJSON(content []byte) ([]Row, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(content))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Format: FormatJSON, Reason: "malformed JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Format: FormatJSON, Reason: "trailing data after JSON document"}
	}
	list, ok := doc.([]any)
	if !ok {
		return nil, &ParseError{Format: FormatJSON, Reason: "JSON file must contain a list of guests"}
	}
	rows := make([]Row, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			// non-object entries carry no fields; they surface as missing-name rejections
			rows = append(rows, Row{})
			continue
		}
		rows = append(rows, Row(obj))
	}
	return rows, nil
}
