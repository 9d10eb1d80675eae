// Package worker implements the asynchronous backup worker. It listens
// for record-change events and writes timestamped JSON snapshots of the
// full dictionary, so a lost phone or wiped browser profile never costs
// more than the debounce window.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"installerpro/internal/events"
	"installerpro/internal/export"
	"installerpro/internal/store"
)

type BackupWorker struct {
	store    *store.Store
	dir      string
	debounce time.Duration
	interval time.Duration
	keep     int

	pending chan struct{}
}

// NewBackupWorker snapshots into dir at most once per debounce window
// after a change, plus a periodic safety snapshot every interval. The
// newest keep snapshots are retained.
func NewBackupWorker(st *store.Store, dir string, debounce, interval time.Duration, keep int) *BackupWorker {
	return &BackupWorker{
		store:    st,
		dir:      dir,
		debounce: debounce,
		interval: interval,
		keep:     keep,
		pending:  make(chan struct{}, 1),
	}
}

// HandleChange marks a snapshot as due. Coalesces bursts: a full queue
// already means "snapshot pending".
func (w *BackupWorker) HandleChange(msg *events.RecordChange) error {
	slog.Debug("Record change received", "kind", msg.Kind, "record_id", msg.RecordID)
	select {
	case w.pending <- struct{}{}:
	default:
	}
	return nil
}

// Run drives the snapshot loops until the context ends.
func (w *BackupWorker) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.pending:
				// Let a burst of changes settle before dumping.
				timer := time.NewTimer(w.debounce)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
				if err := w.Snapshot(ctx); err != nil {
					slog.ErrorContext(ctx, "Snapshot failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.Snapshot(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic snapshot failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// Snapshot dumps the entire dictionary to a timestamped file. The file
// is written to a temp name first so a crash never leaves a truncated
// backup in place.
func (w *BackupWorker) Snapshot(ctx context.Context) error {
	w.store.Reload(ctx)

	dump, err := w.store.ExportAll(ctx)
	if err != nil {
		return fmt.Errorf("export dictionary: %w", err)
	}

	data, err := export.MarshalBackup(dump)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	name := fmt.Sprintf("backup_installerpro_%s.json", time.Now().Format("20060102T150405"))
	path := filepath.Join(w.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot written", "path", path, "keys", len(dump))

	if err := w.prune(); err != nil {
		slog.WarnContext(ctx, "Failed pruning old snapshots", "error", err)
	}
	return nil
}

// prune removes all but the newest keep snapshots.
func (w *BackupWorker) prune() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read backup directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "backup_installerpro_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= w.keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	for _, name := range names[:len(names)-w.keep] {
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
