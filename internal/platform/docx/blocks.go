package docx

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	bodyBlockRe = regexp.MustCompile(`(?s)<w:tbl>.*?</w:tbl>|<w:p(?:\s[^>]*)?/>|<w:p(?:\s[^>]*[^/])?>.*?</w:p>`)
	rowRe       = regexp.MustCompile(`(?s)<w:tr(?:\s[^>]*)?>.*?</w:tr>`)
	jcValRe     = regexp.MustCompile(`<w:jc\s+w:val="([^"]+)"`)
	tabRe       = regexp.MustCompile(`<w:tab/>`)
)

// Run is a span of text sharing one style.
type Run struct {
	Text   string
	Bold   bool
	SizePt float64
}

type Paragraph struct {
	Runs  []Run
	Align string
}

func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type Cell struct {
	Paragraphs []Paragraph
}

// Block is either a paragraph or a table at the top level of the body.
type Block struct {
	Paragraph *Paragraph
	Rows      [][]Cell
}

// Blocks flattens the body into paragraphs and tables for simple renderers.
// Nested tables, images and text boxes are not represented.
func (d *Document) Blocks() []Block {
	var blocks []Block
	for _, raw := range bodyBlockRe.FindAllString(d.body, -1) {
		if strings.HasPrefix(raw, "<w:tbl>") {
			blocks = append(blocks, Block{Rows: parseTable(raw)})
			continue
		}
		p := parseParagraph(raw)
		blocks = append(blocks, Block{Paragraph: &p})
	}
	return blocks
}

func parseTable(raw string) [][]Cell {
	var rows [][]Cell
	for _, row := range rowRe.FindAllString(raw, -1) {
		var cells []Cell
		for _, cell := range cellRe.FindAllString(row, -1) {
			var c Cell
			for _, para := range paraRe.FindAllString(cell, -1) {
				c.Paragraphs = append(c.Paragraphs, parseParagraph(para))
			}
			cells = append(cells, c)
		}
		rows = append(rows, cells)
	}
	return rows
}

func parseParagraph(raw string) Paragraph {
	p := Paragraph{Align: "left"}
	if m := jcValRe.FindStringSubmatch(pPrRe.FindString(raw)); m != nil {
		p.Align = m[1]
	}
	for _, run := range runRe.FindAllString(raw, -1) {
		props := rPrRe.FindString(run)
		r := Run{}
		if m := boldRe.FindStringSubmatch(props); m != nil {
			r.Bold = m[1] == "" || m[1] == "true" || m[1] == "1" || m[1] == "on"
		}
		if m := szRe.FindStringSubmatch(props); m != nil {
			if half, err := strconv.Atoi(m[1]); err == nil {
				r.SizePt = float64(half) / 2
			}
		}
		var text strings.Builder
		body := tabRe.ReplaceAllString(run, "<w:t>\t</w:t>")
		for _, t := range textRe.FindAllStringSubmatch(body, -1) {
			text.WriteString(xmlUnescaper.Replace(t[1]))
		}
		r.Text = text.String()
		if r.Text != "" {
			p.Runs = append(p.Runs, r)
		}
	}
	return p
}
