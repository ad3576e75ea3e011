package generation

import (
	"os"
	"path/filepath"
)

// writeFile persists the image bytes all-or-nothing: the bytes land in a
// temporary file in the destination directory and are renamed over the final
// path, so a failure at any point leaves no partial file behind. Parent
// directories are created as needed, and an existing file at the destination
// is overwritten.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapf(WriteFailure, err, "could not create output directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".easel-*")
	if err != nil {
		return wrapf(WriteFailure, err, "could not create a temporary file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return wrapf(WriteFailure, err, "could not write image bytes: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return wrapf(WriteFailure, err, "could not flush image bytes: %v", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return wrapf(WriteFailure, err, "could not move the image into place: %v", err)
	}
	return nil
}
