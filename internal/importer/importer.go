// Package importer reads lead lists from CSV or XLSX files so existing
// spreadsheets can be loaded into the store and enriched.
package importer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// columns maps recognized header names to business fields. Matching is
// case-insensitive and ignores spaces and underscores.
var columns = map[string]func(*model.Business, string){
	"name":        func(b *model.Business, v string) { b.Name = v },
	"company":     func(b *model.Business, v string) { b.Name = v },
	"business":    func(b *model.Business, v string) { b.Name = v },
	"address":     func(b *model.Business, v string) { b.Address = v },
	"phone":       func(b *model.Business, v string) { b.Phone = v },
	"website":     func(b *model.Business, v string) { b.Website = v },
	"url":         func(b *model.Business, v string) { b.Website = v },
	"email":       func(b *model.Business, v string) { b.Email = v },
	"contact":     func(b *model.Business, v string) { b.ContactName = v },
	"contactname": func(b *model.Business, v string) { b.ContactName = v },
}

// ReadFile loads businesses from a CSV or XLSX lead list, dispatching on
// the file extension. The first row must be a header.
func ReadFile(path, source string) ([]model.Business, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path, source)
	case ".xlsx":
		return readXLSX(path, source)
	}
	return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
}

func readCSV(path, source string) ([]model.Business, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv header")
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read csv row")
		}
		rows = append(rows, row)
	}
	return assemble(header, rows, source)
}

func readXLSX(path, source string) ([]model.Business, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("importer: sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}
	return assemble(header, rows, source)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// assemble maps rows to businesses using the header. Rows without a name
// are skipped.
func assemble(header []string, rows [][]string, source string) ([]model.Business, error) {
	setters := make([]func(*model.Business, string), len(header))
	matched := false
	for i, h := range header {
		key := strings.NewReplacer(" ", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(h)))
		if setter, ok := columns[key]; ok {
			setters[i] = setter
			matched = true
		}
	}
	if !matched {
		return nil, eris.New("importer: no recognized columns in header")
	}

	var out []model.Business
	for _, row := range rows {
		var biz model.Business
		for i, v := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&biz, strings.TrimSpace(v))
			}
		}
		if biz.Name == "" {
			continue
		}
		biz.SourceSearch = source
		out = append(out, biz)
	}
	return out, nil
}
