package pprof

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mem-analysis/pkg/utils"
)

// Writer writes profile files under a root directory, one subdirectory
// per profile type. Past maxFiles per type, the oldest files go first.
type Writer struct {
	mu       sync.Mutex
	root     string
	maxFiles int
	seq      int
	log      utils.Logger
}

// NewWriter creates a Writer rooted at root. maxFiles <= 0 disables
// pruning.
func NewWriter(root string, maxFiles int, log utils.Logger) *Writer {
	if log == nil {
		log = utils.NullLogger{}
	}
	return &Writer{root: root, maxFiles: maxFiles, log: log}
}

// Root returns the root output directory.
func (w *Writer) Root() string {
	return w.root
}

// EnsureDirs creates the root and one subdirectory per profile type.
func (w *Writer) EnsureDirs(profiles []ProfileType) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.root, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, pt := range profiles {
		dir := filepath.Join(w.root, string(pt))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create profile directory %s: %w", pt, err)
		}
	}
	return nil
}

// Write stores one profile snapshot and returns its path. File names
// embed a timestamp and a sequence number, so they sort chronologically.
func (w *Writer) Write(pt ProfileType, data []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	name := fmt.Sprintf("%s_%s_%04d.pprof", pt, time.Now().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.root, string(pt), name)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write profile file: %w", err)
	}

	if err := w.prune(filepath.Dir(path)); err != nil {
		w.log.Warn("failed to prune old %s profiles: %v", pt, err)
	}

	return path, nil
}

// prune removes the oldest .pprof files past the per-type cap. Names
// sort chronologically, so name order is age order.
func (w *Writer) prune(dir string) error {
	if w.maxFiles <= 0 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pprof" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for len(names) > w.maxFiles {
		if err := os.Remove(filepath.Join(dir, names[0])); err != nil {
			return fmt.Errorf("failed to remove %s: %w", names[0], err)
		}
		names = names[1:]
	}
	return nil
}

// ListFiles returns the profile files recorded for one type, in
// chronological order.
func (w *Writer) ListFiles(pt ProfileType) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Join(w.root, string(pt))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pprof" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
