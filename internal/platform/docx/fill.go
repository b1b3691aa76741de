package docx

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"paystub/internal/domain/payroll"
)

var (
	cellRe     = regexp.MustCompile(`(?s)<w:tc(?:\s[^>]*)?>.*?</w:tc>`)
	paraRe     = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?/>|<w:p(?:\s[^>]*[^/])?>.*?</w:p>`)
	paraOpenRe = regexp.MustCompile(`^<w:p(?:\s[^>]*)?>`)
	runRe      = regexp.MustCompile(`(?s)<w:r(?:\s[^>]*)?>.*?</w:r>`)
	textRe     = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
	pPrRe      = regexp.MustCompile(`(?s)<w:pPr>.*?</w:pPr>`)
	rPrRe      = regexp.MustCompile(`(?s)<w:rPr>.*?</w:rPr>`)
	tcPrRe     = regexp.MustCompile(`(?s)<w:tcPr>.*?</w:tcPr>`)
	jcRe       = regexp.MustCompile(`<w:jc\s[^>]*/>`)
	vAlignRe   = regexp.MustCompile(`<w:vAlign\s[^>]*/>`)
	szRe       = regexp.MustCompile(`<w:sz\s+w:val="(\d+)"\s*/>`)
	boldRe     = regexp.MustCompile(`<w:b(?:\s+w:val="([^"]*)")?\s*/>`)
)

var (
	xmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	xmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

// Filler renders a template into a new document for each set of placeholders.
type Filler struct{}

func NewFiller() *Filler {
	return &Filler{}
}

// Fill loads templatePath, substitutes p and writes the result to outPath.
func (f *Filler) Fill(ctx context.Context, templatePath, outPath string, p payroll.Placeholders) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := Open(templatePath)
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	doc.Replace(p)
	if err := doc.Save(outPath); err != nil {
		return fmt.Errorf("save filled document: %w", err)
	}
	return nil
}

// Replace substitutes every token in table cells and flowing text. Table
// cells additionally receive the directive of each token they held, applied
// in template order: the last size wins while bold and right alignment stick.
// Substituted text is never scanned again, so a value that looks like a
// token is written as is.
func (d *Document) Replace(p payroll.Placeholders) {
	tokens := orderedTokens(p.Values)

	d.body = replaceOutsideCells(d.body, func(segment string) string {
		return paraRe.ReplaceAllStringFunc(segment, func(para string) string {
			out, _ := substitute(para, tokens, p.Values)
			return out
		})
	}, func(cell string) string {
		var hits []string
		cell = paraRe.ReplaceAllStringFunc(cell, func(para string) string {
			out, matched := substitute(para, tokens, p.Values)
			hits = append(hits, matched...)
			return out
		})
		for _, token := range hits {
			cell = formatCell(cell, p.Directives[token])
		}
		return cell
	})
}

// replaceOutsideCells applies text to the body between table cells and
// cell to every cell, in a single pass.
func replaceOutsideCells(body string, text, cell func(string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range cellRe.FindAllStringIndex(body, -1) {
		b.WriteString(text(body[last:loc[0]]))
		b.WriteString(cell(body[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(text(body[last:]))
	return b.String()
}

// orderedTokens keeps the template order first so directives applied to a
// cell holding several tokens follow a stable order.
func orderedTokens(values map[string]string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, t := range payroll.Tokens() {
		if _, ok := values[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}
	for t := range values {
		if !seen[t] {
			out = append(out, t)
		}
	}
	return out
}

// substitute replaces tokens in one paragraph. Word splits text into runs
// arbitrarily, so a matching paragraph is collapsed into a single run that
// keeps the first run's properties. It returns the tokens replaced, in
// token order.
func substitute(para string, tokens []string, values map[string]string) (string, []string) {
	text := paragraphText(para)
	if !strings.Contains(text, "<<") {
		return para, nil
	}
	var hits []string
	var pairs []string
	for _, token := range tokens {
		if strings.Contains(text, token) {
			hits = append(hits, token)
			pairs = append(pairs, token, values[token])
		}
	}
	if len(hits) == 0 {
		return para, nil
	}
	text = strings.NewReplacer(pairs...).Replace(text)

	open := paraOpenRe.FindString(para)
	pPr := pPrRe.FindString(para)
	rPr := ""
	if run := runRe.FindString(para); run != "" {
		rPr = rPrRe.FindString(run)
	}
	var b strings.Builder
	b.WriteString(open)
	b.WriteString(pPr)
	b.WriteString("<w:r>")
	b.WriteString(rPr)
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(xmlEscaper.Replace(text))
	b.WriteString("</w:t></w:r></w:p>")
	return b.String(), hits
}

func paragraphText(para string) string {
	var b strings.Builder
	for _, m := range textRe.FindAllStringSubmatch(para, -1) {
		b.WriteString(xmlUnescaper.Replace(m[1]))
	}
	return b.String()
}

func formatCell(cell string, d payroll.Directive) string {
	cell = paraRe.ReplaceAllStringFunc(cell, func(para string) string {
		if d.Align == payroll.AlignRight {
			para = setJustification(para, "right")
		}
		return runRe.ReplaceAllStringFunc(para, func(run string) string {
			return setRunProperties(run, d)
		})
	})
	return setVerticalCenter(cell)
}

func setJustification(para, value string) string {
	if strings.HasSuffix(para, "/>") {
		return para
	}
	jc := `<w:jc w:val="` + value + `"/>`
	pPr := pPrRe.FindString(para)
	if pPr == "" {
		open := paraOpenRe.FindString(para)
		if open == "" {
			return para
		}
		return open + "<w:pPr>" + jc + "</w:pPr>" + para[len(open):]
	}
	updated := jcRe.ReplaceAllString(pPr, "")
	if idx := strings.Index(updated, "<w:rPr>"); idx >= 0 {
		updated = updated[:idx] + jc + updated[idx:]
	} else {
		updated = strings.TrimSuffix(updated, "</w:pPr>") + jc + "</w:pPr>"
	}
	return strings.Replace(para, pPr, updated, 1)
}

// runElements are the run properties preserved when a directive rewrites
// a run, in schema order around the size elements.
var runElements = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<w:rStyle\s[^>]*/>`),
	regexp.MustCompile(`(?s)<w:rFonts\s[^>]*/>`),
}

var runTrailing = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<w:i(?:\s[^>]*)?/>`),
	regexp.MustCompile(`(?s)<w:color\s[^>]*/>`),
}

var underlineRe = regexp.MustCompile(`(?s)<w:u\s[^>]*/>`)

func setRunProperties(run string, d payroll.Directive) string {
	if d.SizePt == 0 && !d.Bold {
		return run
	}
	old := rPrRe.FindString(run)

	var b strings.Builder
	b.WriteString("<w:rPr>")
	for _, re := range runElements {
		b.WriteString(re.FindString(old))
	}
	if d.Bold {
		b.WriteString("<w:b/>")
	} else if m := boldRe.FindString(old); m != "" {
		b.WriteString(m)
	}
	for _, re := range runTrailing {
		b.WriteString(re.FindString(old))
	}
	if d.SizePt > 0 {
		half := strconv.Itoa(int(d.SizePt * 2))
		b.WriteString(`<w:sz w:val="` + half + `"/><w:szCs w:val="` + half + `"/>`)
	} else if m := szRe.FindString(old); m != "" {
		b.WriteString(m)
	}
	b.WriteString(underlineRe.FindString(old))
	b.WriteString("</w:rPr>")

	if old != "" {
		return strings.Replace(run, old, b.String(), 1)
	}
	open := run[:strings.Index(run, ">")+1]
	return open + b.String() + run[len(open):]
}

func setVerticalCenter(cell string) string {
	const center = `<w:vAlign w:val="center"/>`
	if tcPr := tcPrRe.FindString(cell); tcPr != "" {
		updated := vAlignRe.ReplaceAllString(tcPr, "")
		updated = strings.TrimSuffix(updated, "</w:tcPr>") + center + "</w:tcPr>"
		return strings.Replace(cell, tcPr, updated, 1)
	}
	open := cell[:strings.Index(cell, ">")+1]
	return open + "<w:tcPr>" + center + "</w:tcPr>" + cell[len(open):]
}
