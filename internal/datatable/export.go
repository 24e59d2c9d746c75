package datatable

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultExportPrefix = "export"

	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// utf8BOM lets spreadsheet applications detect the encoding
	utf8BOM = "\uFEFF"

	filenameTimestampLayout = "2006-01-02_15-04-05"
	createdAtLayout         = "02 Jan, 2006"
	xlsxSheetName           = "Sheet1"
)

// Export is a rendered file ready to be downloaded
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	RowCount    int
}

// ExportCSV renders every filtered row, in sort order and across all pages, as
// CSV. Display-only columns are left out. The outcome is reported to the
// notifier as well as returned.
func (t *Table[T]) ExportCSV(now time.Time) (*Export, error) {
	headers, rows, err := t.exportMatrix()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(utf8BOM)
	writeCSVLine(&b, headers)
	for _, row := range rows {
		b.WriteByte('\n')
		writeCSVLine(&b, row)
	}

	t.exportSucceeded(len(rows), "CSV")
	return &Export{
		Filename:    t.exportFilename(now, "csv"),
		ContentType: CSVContentType,
		Data:        []byte(b.String()),
		RowCount:    len(rows),
	}, nil
}

// ExportXLSX renders the same rows and columns as ExportCSV into a single
// sheet workbook with a bold header row
func (t *Table[T]) ExportXLSX(now time.Time) (*Export, error) {
	headers, rows, err := t.exportMatrix()
	if err != nil {
		return nil, err
	}

	data, err := renderXLSX(headers, rows)
	if err != nil {
		t.notifier.Error("Export failed", err.Error())
		return nil, err
	}

	t.exportSucceeded(len(rows), "XLSX")
	return &Export{
		Filename:    t.exportFilename(now, "xlsx"),
		ContentType: XLSXContentType,
		Data:        data,
		RowCount:    len(rows),
	}, nil
}

func renderXLSX(headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(xlsxSheetName, "A1", toCells(headers)); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(xlsxSheetName, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, toCells(row)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func toCells(values []string) *[]any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}

// exportMatrix collects the header labels and stringified cells of the export
func (t *Table[T]) exportMatrix() ([]string, [][]string, error) {
	data := t.FilteredRows()
	if len(data) == 0 {
		t.notifier.Info("There are no rows to export.")
		return nil, nil, ErrNoRows
	}

	var cols []Column[T]
	for _, col := range t.columns {
		if col.exportable() {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		t.notifier.Error("No exportable columns found.", "")
		return nil, nil, ErrNoExportableColumns
	}

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.HeaderLabel()
	}

	rows := make([][]string, len(data))
	for r, row := range data {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = exportCell(col.AccessorKey, col.value(row))
		}
		rows[r] = cells
	}

	return headers, rows, nil
}

func (t *Table[T]) exportSucceeded(count int, format string) {
	t.notifier.Success("Export completed!",
		fmt.Sprintf("Exported %d %s to %s.", count, plural(count, "item", "items"), format))
}

func (t *Table[T]) exportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", t.exportPrefix, now.Format(filenameTimestampLayout), ext)
}

// exportCell stringifies a cell. Creation timestamps are shown as "05 Jan, 2025";
// a value that cannot be read as a time is kept as is.
func exportCell(accessorKey string, value any) string {
	if value == nil {
		return ""
	}
	if accessorKey == "createdAt" || accessorKey == "created_at" {
		if formatted, ok := formatCreatedAt(value); ok {
			return formatted
		}
	}
	return Stringify(value)
}

func formatCreatedAt(value any) (string, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(createdAtLayout), true
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return "", false
		}
		return parsed.Format(createdAtLayout), true
	}
	return "", false
}

// escapeCSV quotes a value containing a comma, double quote or newline and
// doubles any embedded quotes. CRLF line breaks are written as LF, which is
// what a CSV reader hands back for them anyway.
func escapeCSV(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeCSVLine(b *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSV(v))
	}
}
