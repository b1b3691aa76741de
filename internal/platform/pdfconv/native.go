package pdfconv

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"paystub/internal/platform/docx"
)

const (
	defaultSizePt = 10.0
	lineFactor    = 0.5
)

// Native renders filled .docx files with gofpdf. It understands paragraphs,
// tables and the bold/size/alignment the filler writes, which is enough for
// the stub template without an office suite installed.
type Native struct {
	PageSize string
}

func NewNative() *Native {
	return &Native{PageSize: "Letter"}
}

func (c *Native) Convert(ctx context.Context, docPath, outDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := docx.Open(docPath)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", c.PageSize, "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, block := range doc.Blocks() {
		if block.Paragraph != nil {
			writeParagraph(pdf, tr, *block.Paragraph)
			continue
		}
		writeTable(pdf, tr, block.Rows)
		pdf.Ln(2)
	}

	stem := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	out := filepath.Join(outDir, stem+".pdf")
	if err := pdf.OutputFileAndClose(out); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func setRunFont(pdf *gofpdf.Fpdf, r docx.Run) float64 {
	style := ""
	if r.Bold {
		style = "B"
	}
	size := r.SizePt
	if size <= 0 {
		size = defaultSizePt
	}
	pdf.SetFont("Helvetica", style, size)
	return size * lineFactor
}

func alignCode(align string) string {
	switch align {
	case "right", "end":
		return "R"
	case "center":
		return "C"
	default:
		return "L"
	}
}

func writeParagraph(pdf *gofpdf.Fpdf, tr func(string) string, p docx.Paragraph) {
	if len(p.Runs) == 0 {
		pdf.Ln(defaultSizePt * lineFactor)
		return
	}
	if align := alignCode(p.Align); align != "L" {
		h := setRunFont(pdf, p.Runs[0])
		pdf.MultiCell(0, h, tr(p.Text()), "", align, false)
		return
	}
	lineH := 0.0
	for _, r := range p.Runs {
		h := setRunFont(pdf, r)
		if h > lineH {
			lineH = h
		}
		pdf.Write(h, tr(r.Text))
	}
	pdf.Ln(lineH)
}

func cellText(c docx.Cell) (string, docx.Run, string) {
	style := docx.Run{}
	align := "left"
	lines := make([]string, 0, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		if i == 0 {
			align = p.Align
		}
		if len(p.Runs) > 0 && style.Text == "" {
			style = p.Runs[0]
		}
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n"), style, align
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, rows [][]docx.Cell) {
	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	contentW := pageW - left - right

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		colW := contentW / float64(len(row))

		texts := make([]string, len(row))
		styles := make([]docx.Run, len(row))
		aligns := make([]string, len(row))
		rowH := 0.0
		for i, cell := range row {
			texts[i], styles[i], aligns[i] = cellText(cell)
			lineH := setRunFont(pdf, styles[i])
			lines := pdf.SplitLines([]byte(tr(texts[i])), colW-2)
			if h := float64(max(len(lines), 1)) * lineH; h > rowH {
				rowH = h
			}
		}
		rowH += 2

		_, y := pdf.GetXY()
		if y+rowH > pageH-bottom {
			pdf.AddPage()
			_, y = pdf.GetXY()
		}
		x := left
		for i := range row {
			pdf.Rect(x, y, colW, rowH, "D")
			lineH := setRunFont(pdf, styles[i])
			pdf.SetXY(x+1, y+1)
			pdf.MultiCell(colW-2, lineH, tr(texts[i]), "", alignCode(aligns[i]), false)
			x += colW
		}
		pdf.SetXY(left, y+rowH)
	}
}
