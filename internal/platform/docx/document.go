// Package docx fills placeholder tokens in Word templates. Only the main
// document part is rewritten; every other part is copied through untouched.
package docx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
)

const mainPart = "word/document.xml"

var ErrNotDocx = errors.New("not a docx package")

type part struct {
	header zip.FileHeader
	data   []byte
}

// Document is an in-memory .docx package.
type Document struct {
	parts []part
	body  string
}

// Open reads a .docx file from disk.
func Open(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(raw)
}

// Read parses a .docx package held in memory.
func Read(raw []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	doc := &Document{}
	found := false
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
		if f.Name == mainPart {
			doc.body = string(data)
			found = true
		}
		doc.parts = append(doc.parts, part{header: f.FileHeader, data: data})
	}
	if !found {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, mainPart)
	}
	return doc, nil
}

// Body returns the current main document XML.
func (d *Document) Body() string {
	return d.body
}

// WriteTo serialises the package, substituting the rewritten main part.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, p := range d.parts {
		header := p.header
		data := p.data
		if header.Name == mainPart {
			data = []byte(d.body)
		}
		header.CompressedSize64 = 0
		header.UncompressedSize64 = 0
		header.CRC32 = 0
		if header.Method != zip.Store {
			header.Method = zip.Deflate
		}
		fw, err := zw.CreateHeader(&header)
		if err != nil {
			return cw.n, err
		}
		if _, err := fw.Write(data); err != nil {
			return cw.n, err
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Save writes the package to path.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := d.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
