package levels

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vovakirdan/stacker/internal/shapes"
)

// Loader handles loading levels from a directory tree.
type Loader struct {
	FS      fs.FS
	Root    string
	Catalog *shapes.Catalog
}

// NewLoader creates a loader reading from a directory on disk.
func NewLoader(root string, cat *shapes.Catalog) *Loader {
	return &Loader{FS: os.DirFS(root), Root: ".", Catalog: cat}
}

// NewFSLoader creates a loader reading from an fs.FS (e.g. an embed.FS).
func NewFSLoader(fsys fs.FS, root string, cat *shapes.Catalog) *Loader {
	return &Loader{FS: fsys, Root: root, Catalog: cat}
}

// LoadAll recursively scans and loads all level files.
// Returns levels sorted by ID for deterministic ordering. Files that fail to
// parse are reported together in the returned error; the valid levels are
// still returned.
func (l *Loader) LoadAll() ([]Level, error) {
	var (
		levels []Level
		bad    []string
	)

	err := fs.WalkDir(l.FS, l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isSupportedExtension(strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		level, err := l.LoadFile(path)
		if err != nil {
			bad = append(bad, err.Error())
			return nil
		}
		levels = append(levels, level)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", l.Root, err)
	}

	// Sort by ID for determinism
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].ID < levels[j].ID
	})

	if len(bad) > 0 {
		return levels, fmt.Errorf("skipped %d invalid level files: %s", len(bad), strings.Join(bad, "; "))
	}
	return levels, nil
}

// LoadFile loads a single level file.
func (l *Loader) LoadFile(path string) (Level, error) {
	data, err := fs.ReadFile(l.FS, path)
	if err != nil {
		return Level{}, fmt.Errorf("reading file %s: %w", path, err)
	}

	level, err := ParseYAML(data, l.Catalog)
	if err != nil {
		return Level{}, fmt.Errorf("parsing file %s: %w", path, err)
	}
	level.FilePath = path
	return level, nil
}

// LoadByID loads a specific level by ID.
func (l *Loader) LoadByID(id string) (Level, error) {
	levels, err := l.LoadAll()
	if err != nil && len(levels) == 0 {
		return Level{}, err
	}

	for _, lvl := range levels {
		if lvl.ID == id {
			return lvl, nil
		}
	}

	return Level{}, fmt.Errorf("level not found: %s", id)
}

// isSupportedExtension checks if extension is supported.
func isSupportedExtension(ext string) bool {
	for _, supported := range FormatExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}
