// Package exporter writes library items to an xlsx workbook and reads such
// workbooks back.
package exporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joestump/link-library/internal/importer"
	"github.com/joestump/link-library/internal/store"
)

// SheetName is the single worksheet of an export.
const SheetName = "Links"

const (
	dateLayout = "1/2/2006"
	timeLayout = "3:04:05 PM"
	tagSep     = ", "
)

var (
	header = []any{"S.No", "Title", "URL", "Description", "Tags", "Created Date", "Created Time"}
	widths = []float64{5, 30, 50, 40, 20, 12, 12}
)

// Filename returns the download name for a library export taken at now.
func Filename(libraryID string, now time.Time) string {
	return fmt.Sprintf("library-%s-%s.xlsx", libraryID, now.UTC().Format("2006-01-02"))
}

// Write renders items, in the order given, as a workbook with one header row
// and one row per item. Created date and time are shown in loc; a nil loc
// means UTC.
func Write(w io.Writer, items []*store.Item, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, it := range items {
		created := it.CreatedAt.In(loc)
		row := []any{
			i + 1,
			it.Title,
			it.URL,
			it.Description.String,
			strings.Join(it.Tags, tagSep),
			created.Format(dateLayout),
			created.Format(timeLayout),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadRecords reads the Title, URL, Description and Tags columns of a
// workbook produced by Write. Rows without a URL are skipped.
func ReadRecords(r io.Reader) ([]importer.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", SheetName, err)
	}

	var records []importer.Record
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		u := strings.TrimSpace(cell(row, 2))
		if u == "" {
			continue
		}
		rec := importer.Record{URL: u, Title: strings.TrimSpace(cell(row, 1))}
		if rec.Title == "" {
			rec.Title = u
		}
		if d := strings.TrimSpace(cell(row, 3)); d != "" {
			rec.Description = &d
		}
		if tags := cell(row, 4); tags != "" {
			rec.Tags = store.NormalizeTags(strings.Split(tags, tagSep))
		}
		records = append(records, rec)
	}
	return records, nil
}

// cell returns column i of row. GetRows drops trailing empty cells.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
