// Package importer loads a directory of workout files into the template
// library. Zwift .zwo files and intervals.icu-style .json documents are
// converted through the same ingest providers the HTTP import endpoint
// uses; a SQLite state database keyed by path, size, and content hash
// makes repeated runs incremental.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/ingest/intervalsdoc"
	"github.com/meltforce/paceline/internal/ingest/zwo"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
	"github.com/meltforce/paceline/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int // already imported with the same content
	FilesErrored   int

	WorkoutsImported int
	WorkoutsEmpty    int // parsed but produced no usable structure

	EmptyNames []string
}

// Importer reads workout files from a directory tree and inserts
// templates into the DB.
type Importer struct {
	db     *storage.DB
	state  *StateDB
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer. A nil state database disables incremental
// tracking; every file is then processed on every run.
func New(db *storage.DB, state *StateDB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, state: state, log: log, dryRun: dryRun}
}

// Import processes all .zwo and .json files under dir, recursively.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".zwo", ".json":
		default:
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return imp.importFile(ctx, dir, path)
	})
	if err != nil {
		return &imp.stats, fmt.Errorf("walking %s: %w", dir, err)
	}
	return &imp.stats, nil
}

// importFile converts one workout file and inserts it as a template.
// Parse failures are logged and counted, never fatal: one bad file must
// not abort a library import.
func (imp *Importer) importFile(ctx context.Context, root, path string) error {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}

	info, err := os.Stat(path)
	if err != nil {
		imp.log.Warn("stat failed", "file", relPath, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	var hash string
	if imp.state != nil {
		hash, err = HashFile(path)
		if err != nil {
			imp.log.Warn("hash failed", "file", relPath, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		done, err := imp.state.IsImported(relPath, info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking state for %s: %w", relPath, err)
		}
		if done {
			imp.stats.FilesSkipped++
			return nil
		}
	}

	name, structure, err := convertFile(path)
	if err != nil {
		imp.log.Warn("conversion failed", "file", relPath, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	imp.stats.FilesProcessed++

	if structure == nil || len(structure.Nodes) == 0 {
		imp.stats.WorkoutsEmpty++
		imp.stats.EmptyNames = append(imp.stats.EmptyNames, relPath)
		imp.log.Info("no usable structure", "file", relPath)
		return imp.markDone(relPath, info.Size(), hash)
	}

	if name == "" {
		name = templateNameFromPath(relPath)
	}

	if imp.dryRun {
		imp.stats.WorkoutsImported++
		return nil
	}

	row := models.WorkoutTemplateRow{
		ID:        uuid.New(),
		Name:      name,
		Sport:     sportFromPath(path),
		Structure: structure,
	}
	if err := imp.db.InsertTemplate(ctx, row); err != nil {
		return fmt.Errorf("inserting template from %s: %w", relPath, err)
	}
	imp.stats.WorkoutsImported++
	imp.log.Info("imported workout", "file", relPath, "name", name)

	return imp.markDone(relPath, info.Size(), hash)
}

func (imp *Importer) markDone(relPath string, size int64, hash string) error {
	if imp.state == nil || imp.dryRun {
		return nil
	}
	if err := imp.state.MarkImported(relPath, size, hash); err != nil {
		return fmt.Errorf("recording state for %s: %w", relPath, err)
	}
	return nil
}

// convertFile dispatches on extension to the matching ingest provider.
func convertFile(path string) (string, *plan.Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zwo":
		doc, err := zwo.Parse(f)
		if err != nil {
			return "", nil, err
		}
		return doc.Name, zwo.Convert(doc), nil
	case ".json":
		doc, err := intervalsdoc.Parse(f)
		if err != nil {
			return "", nil, err
		}
		return doc.Name, intervalsdoc.Convert(doc), nil
	default:
		return "", nil, fmt.Errorf("unsupported extension: %s", path)
	}
}

// templateNameFromPath derives a readable name from a filename like
// "4x8min_threshold.zwo" when the document itself carries none.
func templateNameFromPath(relPath string) string {
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

// sportFromPath uses the parent directory as the sport when the library
// is organized as bike/, run/, etc. Top-level files get no sport.
func sportFromPath(path string) string {
	parent := filepath.Base(filepath.Dir(path))
	switch strings.ToLower(parent) {
	case "bike", "run", "swim", "row":
		return strings.ToLower(parent)
	}
	return ""
}
