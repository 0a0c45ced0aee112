package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

func TestRegistryReadsPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.txt")
	if err := os.WriteFile(path, []byte("  Compressão de áudio.\n\nSegundo parágrafo.  "), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := NewRegistry().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "Compressão de áudio.\n\nSegundo parágrafo." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRegistryRejectsBinaryAndUnknown(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "manual.txt")
	if err := os.WriteFile(bin, []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := NewRegistry().Extract(context.Background(), bin); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for binary text, got %v", err)
	}
	if _, err := NewRegistry().Extract(context.Background(), filepath.Join(dir, "manual.docx")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown extension, got %v", err)
	}
}

func TestSpreadsheetRowsBecomeParagraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "Parâmetro")
	_ = f.SetCellValue(sheet, "B1", "Faixa")
	_ = f.SetCellValue(sheet, "A2", "Ratio")
	_ = f.SetCellValue(sheet, "B2", "1:1 a 20:1")
	_ = f.SetCellValue(sheet, "A3", "Attack")
	_ = f.SetCellValue(sheet, "B3", "0.1 ms a 100 ms")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	_ = f.Close()

	got, err := NewRegistry().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	rows := strings.Split(got, "\n\n")
	if len(rows) != 2 || rows[0] != sheet+" | Parâmetro: Ratio; Faixa: 1:1 a 20:1" {
		t.Fatalf("unexpected rows %q", rows)
	}
}
