package importer

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"guestpass-backend/internal/domain"
)

// ExportSheet is the sheet name used by ExportXLSX.
const ExportSheet = "Guests"

func exportRow(g domain.Guest) []string {
	return []string{strconv.FormatUint(uint64(g.ID), 10), g.Name, g.Organization}
}

// ExportCSV writes one `id|name|organization` line per guest with no header.
func ExportCSV(w io.Writer, guests []domain.Guest) error {
	cw := csv.NewWriter(w)
	cw.Comma = '|'
	for _, g := range guests {
		if err := cw.Write(exportRow(g)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX writes the same three columns as ExportCSV into a single sheet.
func ExportXLSX(w io.Writer, guests []domain.Guest) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return err
	}
	for i, g := range guests {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := exportRow(g)
		if err := f.SetSheetRow(ExportSheet, cell, &[]any{row[0], row[1], row[2]}); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

var templateRows = [][]string{
	{"title", "name", "role", "organization", "tag", "email", "phone"},
	{"Mr", "Nguyễn Văn A", "CEO", "Công ty ABC", "ABC", "nguyenvana@abc.com", "0123456789"},
}

// Template returns a CSV import template with one sample row.
func Template() []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.WriteAll(templateRows)
	return buf.Bytes()
}
