package archive

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/zip"
)

// Entry is one named file inside an archive.
type Entry struct {
	Name    string
	Content []byte
}

// ZipWriter writes deflated ZIP archives in the order entries are given.
type ZipWriter struct {
	Modified time.Time
}

func NewZipWriter() *ZipWriter {
	return &ZipWriter{}
}

func (z *ZipWriter) Write(w io.Writer, entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	zw := zip.NewWriter(w)
	for _, e := range entries {
		name := path.Base(e.Name)
		if name == "." || name == "/" || name == "" {
			_ = zw.Close()
			return fmt.Errorf("invalid entry name %q", e.Name)
		}
		if seen[name] {
			_ = zw.Close()
			return fmt.Errorf("duplicate entry %q", name)
		}
		seen[name] = true

		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if !z.Modified.IsZero() {
			header.Modified = z.Modified
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			_ = zw.Close()
			return err
		}
		if _, err := fw.Write(e.Content); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}
