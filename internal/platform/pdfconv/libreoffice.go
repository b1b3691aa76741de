// Package pdfconv turns filled documents into PDFs. Converters write
// <stem>.pdf into the output directory and never retry.
package pdfconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTimeout = 2 * time.Minute

// LibreOffice shells out to a headless soffice binary.
type LibreOffice struct {
	Binary  string
	Timeout time.Duration
}

func NewLibreOffice(binary string, timeout time.Duration) *LibreOffice {
	if strings.TrimSpace(binary) == "" {
		binary = "libreoffice"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LibreOffice{Binary: binary, Timeout: timeout}
}

// Available reports whether the binary can be found on PATH.
func (c *LibreOffice) Available() bool {
	_, err := exec.LookPath(c.Binary)
	return err == nil
}

func (c *LibreOffice) Convert(ctx context.Context, docPath, outDir string) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	// soffice refuses to run twice against one profile, so each call gets
	// its own inside the output directory.
	profile, err := filepath.Abs(filepath.Join(outDir, ".profile"))
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, c.Binary,
		"-env:UserInstallation=file://"+filepath.ToSlash(profile),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		docPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s", c.Binary, c.Timeout)
		}
		return fmt.Errorf("%s failed: %w: %s", c.Binary, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
