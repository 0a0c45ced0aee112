package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet turns every non-empty row into a paragraph of
// "header: value" pairs so rows survive paragraph splitting.
type Spreadsheet struct{}

func NewSpreadsheet() *Spreadsheet {
	return &Spreadsheet{}
}

func (e *Spreadsheet) Extract(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	var paragraphs []string
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		header := rows[0]
		for _, row := range rows[1:] {
			if line := rowText(sheet, header, row); line != "" {
				paragraphs = append(paragraphs, line)
			}
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

func rowText(sheet string, header, row []string) string {
	parts := make([]string, 0, len(row))
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			parts = append(parts, strings.TrimSpace(header[i])+": "+cell)
			continue
		}
		parts = append(parts, cell)
	}
	if len(parts) == 0 {
		return ""
	}
	return sheet + " | " + strings.Join(parts, "; ")
}
