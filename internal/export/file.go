// Package export writes enriched businesses to files and pushes them to
// CRM targets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var fileHeader = []string{
	"name", "address", "phone", "website", "email", "contact_name",
	"confidence_score", "enrichment_method", "additional_emails",
	"rating", "reviews_count", "categories", "source_search",
}

func fileRow(b model.Business) []string {
	return []string{
		b.Name,
		b.Address,
		b.Phone,
		b.Website,
		b.Email,
		b.ContactName,
		strconv.FormatFloat(b.ConfidenceScore, 'f', 2, 64),
		b.EnrichmentMethod,
		strings.Join(b.AdditionalEmails, "; "),
		strconv.FormatFloat(b.Rating, 'f', 1, 64),
		strconv.Itoa(b.ReviewsCount),
		strings.Join(b.Categories, "; "),
		b.SourceSearch,
	}
}

// WriteCSV writes businesses as CSV with a header row.
func WriteCSV(w io.Writer, businesses []model.Business) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fileHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, b := range businesses {
		if err := cw.Write(fileRow(b)); err != nil {
			return eris.Wrapf(err, "export: write csv row for %s", b.Name)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteJSON writes businesses as an indented JSON array.
func WriteJSON(w io.Writer, businesses []model.Business) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(businesses), "export: write json")
}

// WriteXLSX writes businesses to a single-sheet workbook.
func WriteXLSX(w io.Writer, businesses []model.Business) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range fileHeader {
		header.AddCell().SetString(h)
	}

	for _, b := range businesses {
		row := sheet.AddRow()
		for _, v := range fileRow(b) {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// Format selects a file export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format string from config or flags.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// WriteFile dispatches to the encoder for the given format.
func WriteFile(w io.Writer, format Format, businesses []model.Business) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, businesses)
	case FormatJSON:
		return WriteJSON(w, businesses)
	case FormatXLSX:
		return WriteXLSX(w, businesses)
	}
	return eris.Errorf("export: unknown format %q", format)
}
