// Package ziputil extracts entries from in-memory zip archives.
package ziputil

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrNoMatch is returned when no entry in the archive satisfies the
// match function.
var ErrNoMatch = errors.New("no matching entry in archive")

// ExtractFirstMatch returns the contents of the first file entry whose
// name satisfies match, in archive order. Directory entries are never
// considered.
func ExtractFirstMatch(data []byte, match func(name string) bool) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !match(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()

		if err != nil {
			return nil, fmt.Errorf("failed to read entry %s: %w", f.Name, err)
		}

		return content, nil
	}

	return nil, ErrNoMatch
}
