// Package fsjson reads and writes the JSON files that back Atlas state
// (memory, architecture, project). Writes go to a temporary file in the
// target directory, are flushed to disk, then atomically renamed over the
// destination so an interrupted write never corrupts previously persisted
// data.
package fsjson

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lexlapax/atlas/pkg/errors"
)

// Read decodes the JSON file at path into v. It returns found=false when
// the file does not exist or is empty, which callers treat as a fresh
// store. Malformed content is reported as errors.ErrCorruptStore with the
// offending path.
func Read(path string, v interface{}) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to read %s", path)
	}

	if len(data) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(errors.ErrCorruptStore, "%s: %v", path, err)
	}

	return true, nil
}

// Write persists v as indented JSON at path using a temp-file-and-rename
// sequence. The temporary file is synced and closed on all exit paths; on
// failure the destination file is left untouched.
func Write(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file in %s", dir)
	}

	// Remove the temp file on any failure before the rename.
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode %s", path)
	}

	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync %s", tmp.Name())
	}

	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		tmp = nil
		os.Remove(name)
		return errors.Wrap(err, "failed to close %s", name)
	}
	tmp = nil

	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "failed to replace %s", path)
	}

	return nil
}
