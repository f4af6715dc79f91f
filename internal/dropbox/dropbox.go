// Package dropbox ingests JSON payloads dropped into a watched directory.
//
// Each file is decoded with ingest.DecodePayload and sent through the ingest
// service. The file is then moved to done/ when every item succeeded, or to
// failed/ otherwise, next to a <name>.report.json describing the outcome.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/ingest"
	"github.com/listenupapp/exhibit-server/internal/service"
)

// Ingester ingests a batch of items into an exhibit.
type Ingester interface {
	IngestBatch(ctx context.Context, exhibitID string, items []*domain.RawItem) (*service.BatchReport, error)
}

// Limiter blocks until an ingestion for key may proceed.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

// Report is written next to every processed file.
type Report struct {
	File  string               `json:"file"`
	Error string               `json:"error,omitempty"`
	Batch *service.BatchReport `json:"batch,omitempty"`
}

// OK reports whether the whole file was ingested.
func (r *Report) OK() bool {
	return r.Error == "" && r.Batch != nil && r.Batch.Failed == 0
}

// Dropbox watches a directory and ingests the payloads that appear in it.
type Dropbox struct {
	opts     Options
	ingester Ingester
	logger   *slog.Logger
}

// New creates a dropbox, creating its directories if needed.
func New(opts Options, ingester Ingester, logger *slog.Logger) (*Dropbox, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{opts.Dir, filepath.Join(opts.Dir, DoneDir), filepath.Join(opts.Dir, FailedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	return &Dropbox{opts: opts, ingester: ingester, logger: logger}, nil
}

// Dir returns the watched directory.
func (d *Dropbox) Dir() string { return d.opts.Dir }

// Run processes files already in the directory, then every file that arrives,
// until ctx is cancelled. Files are processed one at a time.
func (d *Dropbox) Run(ctx context.Context) error {
	b, err := newBackend(d.opts, d.logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ready := make(chan string, 16)
	g, ctx := errgroup.WithContext(ctx)

	// The watch is established before the scan so nothing written in between is missed.
	g.Go(func() error { return b.Run(ctx, ready) })

	g.Go(func() error {
		existing, err := d.scan()
		if err != nil {
			return err
		}
		for _, path := range existing {
			if ctx.Err() != nil {
				return nil
			}
			d.processLogged(ctx, path)
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case path := <-ready:
				d.processLogged(ctx, path)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("dropbox %s: %w", d.opts.Dir, err)
	}
	return nil
}

// scan lists pending payloads in name order.
func (d *Dropbox) scan() ([]string, error) {
	entries, err := os.ReadDir(d.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read dropbox: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(d.opts.Dir, e.Name())
		if d.opts.accepts(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (d *Dropbox) processLogged(ctx context.Context, path string) {
	report, err := d.Process(ctx, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		d.logger.Debug("dropbox file already handled", "path", path)
	case err != nil:
		d.logger.Error("dropbox file not processed", "path", path, "error", err)
	case report.OK():
		d.logger.Info("dropbox file ingested", "file", report.File, "items", report.Batch.Total)
	default:
		d.logger.Warn("dropbox file ingested with failures", "file", report.File, "error", report.Error, "failed", failedCount(report))
	}
}

// Process ingests one file and moves it out of the dropbox.
// Payload and item errors are recorded in the report; the returned error is
// for files that could not be read or moved. A file whose ingestion was
// cancelled while waiting on the limiter stays in place.
func (d *Dropbox) Process(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	report := &Report{File: name}

	payload, err := ingest.DecodePayload(bytes.NewReader(data))
	if err != nil {
		report.Error = err.Error()
	} else {
		exhibit := payload.Exhibit
		if exhibit == "" {
			exhibit = d.opts.Exhibit
		}
		if d.opts.Limiter != nil {
			if err := d.opts.Limiter.Wait(ctx, "dropbox|"+exhibit); err != nil {
				return nil, fmt.Errorf("wait for %s: %w", name, err)
			}
		}
		batch, err := d.ingester.IngestBatch(ctx, exhibit, payload.Items)
		if err != nil {
			report.Error = err.Error()
		}
		report.Batch = batch
	}

	dest := DoneDir
	if !report.OK() {
		dest = FailedDir
	}
	if err := d.finish(path, dest, report); err != nil {
		return report, err
	}
	return report, nil
}

func (d *Dropbox) finish(path, dest string, report *Report) error {
	dir := filepath.Join(d.opts.Dir, dest)
	name := filepath.Base(path)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	reportPath := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+reportSuffix)
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if err := os.Rename(path, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("move %s to %s: %w", name, dest, err)
	}
	return nil
}

func failedCount(r *Report) int {
	if r.Batch == nil {
		return 0
	}
	return r.Batch.Failed
}
