// Package eventstore persists the collected EventSet as a JSON file shared by
// the collector, the synthesizer and the brief server.
package eventstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
)

// Save replaces the file at path with the event set as an indented JSON array.
// The previous file stays intact until the new one is fully written.
func Save(path string, es models.EventSet) error {
	if es == nil {
		es = models.EventSet{}
	}
	data, err := json.MarshalIndent(es, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding event set: %w", err)
	}
	data = append(data, '\n')

	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("saving event set: %w", err)
	}
	return nil
}

// Load reads an event set. A missing file is an empty set. A file that cannot
// be read or decoded yields an empty set together with the error.
func Load(path string) (models.EventSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.EventSet{}, nil
		}
		return models.EventSet{}, fmt.Errorf("reading event set %s: %w", path, err)
	}

	var es models.EventSet
	if err := json.Unmarshal(data, &es); err != nil {
		return models.EventSet{}, fmt.Errorf("decoding event set %s: %w", path, err)
	}
	if es == nil {
		es = models.EventSet{}
	}
	return es, nil
}

// WriteFileAtomic writes data to a temp file beside path, syncs it and
// renames it over path. Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	committed = true
	return nil
}
