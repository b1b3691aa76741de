package pdfconv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"paystub/internal/platform/docx"
)

func TestNativeConvertWritesPDF(t *testing.T) {
	dir := t.TempDir()
	raw, err := docx.SampleTemplate()
	if err != nil {
		t.Fatalf("sample template: %v", err)
	}
	docPath := filepath.Join(dir, "stub.docx")
	if err := os.WriteFile(docPath, raw, 0o600); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	if err := NewNative().Convert(context.Background(), docPath, dir); err != nil {
		t.Fatalf("convert: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "stub.pdf"))
	if err != nil {
		t.Fatalf("expected pdf output: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a pdf")
	}
}

func TestNativeConvertMissingInput(t *testing.T) {
	dir := t.TempDir()
	if err := NewNative().Convert(context.Background(), filepath.Join(dir, "missing.docx"), dir); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestLibreOfficeMissingBinary(t *testing.T) {
	c := NewLibreOffice("definitely-not-a-real-soffice", 0)
	if c.Available() {
		t.Skip("unexpected binary on PATH")
	}
	dir := t.TempDir()
	if err := c.Convert(context.Background(), filepath.Join(dir, "x.docx"), dir); err == nil {
		t.Fatal("expected error when binary is missing")
	}
}
