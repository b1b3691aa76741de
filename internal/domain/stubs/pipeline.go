package stubs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"paystub/internal/domain/payroll"
	"paystub/internal/platform/archive"
)

const (
	DefaultConvertTimeout = 2 * time.Minute
	workspacePrefix       = "run-"
)

type Filler interface {
	Fill(ctx context.Context, templatePath, outPath string, p payroll.Placeholders) error
}

// Converter writes <stem>.pdf for docPath into outDir.
type Converter interface {
	Convert(ctx context.Context, docPath, outDir string) error
}

type ArchiveWriter interface {
	Write(w io.Writer, entries []archive.Entry) error
}

// Job describes the periods of one batch and how to resolve each of them.
type Job struct {
	Identity string
	Paydays  []time.Time
	Resolve  func(payday time.Time) (payroll.Placeholders, error)
}

// Pipeline fills, converts and archives one document per payday. All
// intermediate files live in a per-run workspace that is always removed.
type Pipeline struct {
	Template       string
	WorkDir        string
	Filler         Filler
	Converter      Converter
	Archiver       ArchiveWriter
	Workers        int
	ConvertTimeout time.Duration
}

func (p *Pipeline) Run(ctx context.Context, job Job) (Batch, error) {
	if err := os.MkdirAll(p.WorkDir, 0o700); err != nil {
		return Batch{}, fmt.Errorf("prepare work dir: %w", err)
	}
	ws, err := newWorkspace(p.WorkDir)
	if err != nil {
		return Batch{}, fmt.Errorf("prepare workspace: %w", err)
	}
	defer ws.cleanup()

	docs := make([]Document, len(job.Paydays))
	if p.Workers <= 1 {
		for i, payday := range job.Paydays {
			doc, err := p.renderPeriod(ctx, ws, i, payday, job)
			if err != nil {
				return Batch{}, err
			}
			docs[i] = doc
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.Workers)
		for i, payday := range job.Paydays {
			g.Go(func() error {
				doc, err := p.renderPeriod(gctx, ws, i, payday, job)
				if err != nil {
					return err
				}
				docs[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Batch{}, err
		}
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Payday.Before(docs[j].Payday) })
	entries := make([]archive.Entry, len(docs))
	for i, d := range docs {
		entries[i] = archive.Entry{Name: d.Name, Content: d.Content}
	}
	var buf bytes.Buffer
	if err := p.Archiver.Write(&buf, entries); err != nil {
		return Batch{}, fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}
	return Batch{Documents: docs, Archive: buf.Bytes()}, nil
}

func (p *Pipeline) renderPeriod(ctx context.Context, ws *workspace, i int, payday time.Time, job Job) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	day := payday.Format("2006-01-02")
	placeholders, err := job.Resolve(payday)
	if err != nil {
		return Document{}, err
	}

	dir, err := ws.dir(fmt.Sprintf("p%03d", i))
	if err != nil {
		return Document{}, err
	}
	docPath := ws.track(filepath.Join(dir, "stub.docx"))
	if err := p.Filler.Fill(ctx, p.Template, docPath, placeholders); err != nil {
		return Document{}, fmt.Errorf("%w: payday %s: %w", ErrDocumentFillFailed, day, err)
	}

	timeout := p.ConvertTimeout
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	pdfPath := ws.track(filepath.Join(dir, "stub.pdf"))
	if err := p.Converter.Convert(cctx, docPath, dir); err != nil {
		return Document{}, fmt.Errorf("%w: payday %s: %w", ErrDocumentConversionFailed, day, err)
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return Document{}, fmt.Errorf("%w: payday %s: expected output missing", ErrDocumentConversionFailed, day)
	}

	name := DocumentName(job.Identity, payday)
	final := ws.track(filepath.Join(dir, name))
	if err := os.Rename(pdfPath, final); err != nil {
		return Document{}, fmt.Errorf("%w: payday %s: %w", ErrDocumentConversionFailed, day, err)
	}
	content, err := os.ReadFile(final)
	if err != nil {
		return Document{}, fmt.Errorf("%w: payday %s: %w", ErrDocumentConversionFailed, day, err)
	}
	return Document{Name: name, Payday: payday, Index: placeholders.Index, Content: content}, nil
}

type workspace struct {
	root  string
	mu    sync.Mutex
	files []string
}

func newWorkspace(base string) (*workspace, error) {
	root := filepath.Join(base, workspacePrefix+uuid.NewString())
	if err := os.Mkdir(root, 0o700); err != nil {
		return nil, err
	}
	return &workspace{root: root}, nil
}

func (w *workspace) dir(name string) (string, error) {
	path := filepath.Join(w.root, name)
	if err := os.Mkdir(path, 0o700); err != nil {
		return "", err
	}
	return path, nil
}

func (w *workspace) track(path string) string {
	w.mu.Lock()
	w.files = append(w.files, path)
	w.mu.Unlock()
	return path
}

// cleanup is best effort: failures are logged and never returned.
func (w *workspace) cleanup() {
	w.mu.Lock()
	files := w.files
	w.mu.Unlock()
	for i := len(files) - 1; i >= 0; i-- {
		if err := os.Remove(files[i]); err != nil && !os.IsNotExist(err) {
			slog.Warn("artifact cleanup failed", "path", files[i], "err", err)
		}
	}
	if err := os.RemoveAll(w.root); err != nil {
		slog.Warn("workspace cleanup failed", "path", w.root, "err", err)
	}
}

// SweepWorkspaces removes run workspaces older than maxAge, left behind by a
// process that died mid-batch.
func SweepWorkspaces(workDir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(workDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.RemoveAll(filepath.Join(workDir, entry.Name())); err != nil {
			slog.Warn("stale workspace removal failed", "path", entry.Name(), "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// DocumentName is the archive entry name of the stub for one payday.
func DocumentName(identity string, payday time.Time) string {
	return fmt.Sprintf("%s_%s.pdf", identity, payday.Format("01022006"))
}
