package docx

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/zip"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

func para(runs ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, r := range runs {
		b.WriteString(`<w:r><w:rPr><w:sz w:val="20"/></w:rPr><w:t xml:space="preserve">` + r + "</w:t></w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

func row(cells ...string) string {
	var b strings.Builder
	b.WriteString("<w:tr>")
	for _, c := range cells {
		b.WriteString("<w:tc><w:tcPr><w:tcW w:w=\"2000\" w:type=\"dxa\"/></w:tcPr>" + para(c) + "</w:tc>")
	}
	b.WriteString("</w:tr>")
	return b.String()
}

func sampleBody() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	b.WriteString(para("&lt;&lt;com", "pany&gt;&gt;"))
	b.WriteString(para("&lt;&lt;address_co&gt;&gt;"))
	b.WriteString("<w:tbl>")
	b.WriteString(row("&lt;&lt;nombre&gt;&gt;", "Check &lt;&lt;check_id&gt;&gt;"))
	b.WriteString(row("Pay date &lt;&lt;fecha&gt;&gt;", "Period start &lt;&lt;pay_date&gt;&gt;"))
	b.WriteString(row("SSN xxx-xx-&lt;&lt;ssn_digits&gt;&gt;", "Dependents &lt;&lt;dependents&gt;&gt;"))
	b.WriteString("</w:tbl>")
	b.WriteString(para("PAY &lt;&lt;netpaytext&gt;&gt; AND &lt;&lt;decimal&gt;&gt;/100 DOLLARS"))
	b.WriteString(para("&lt;&lt;client_address&gt;&gt;"))
	b.WriteString(para("&lt;&lt;city_state&gt;&gt;"))
	b.WriteString("<w:tbl>")
	b.WriteString(row("Earnings", "Current", "Year to date"))
	b.WriteString(row("Gross pay", "&lt;&lt;salary&gt;&gt;", "&lt;&lt;salaryytd&gt;&gt;"))
	b.WriteString(row("Federal withholding", "&lt;&lt;fed&gt;&gt;", "&lt;&lt;fedytd&gt;&gt;"))
	b.WriteString(row("Social Security", "&lt;&lt;ss&gt;&gt;", "&lt;&lt;ssytd&gt;&gt;"))
	b.WriteString(row("Medicare", "&lt;&lt;mc&gt;&gt;", "&lt;&lt;mcytd&gt;&gt;"))
	b.WriteString(row("Total deductions", "&lt;&lt;totalt&gt;&gt;", "&lt;&lt;totaltytd&gt;&gt;"))
	b.WriteString(row("Net pay", "&lt;&lt;netpay&gt;&gt;", ""))
	b.WriteString("</w:tbl>")
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

// SampleTemplate builds a minimal stub template that uses every token.
// The company token is split across two runs the way Word often saves it.
func SampleTemplate() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{mainPart, sampleBody()},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(entry.body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
