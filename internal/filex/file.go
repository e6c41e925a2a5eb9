// Package filex contains filesystem helpers: directory preparation for the
// local session database and content inspection of files picked for upload.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotRegularFile is returned by Inspect for directories, devices and the like.
var ErrNotRegularFile = errors.New("not a regular file")

// Info describes a local file about to be uploaded.
type Info struct {
	Path        string
	Name        string
	Size        int64
	ContentType string
}

// EnsureParentDir creates the directory that will hold path (0o700) and
// returns the absolute form of path.
func EnsureParentDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}

// Inspect stats path and sniffs its content type from the file header.
// The returned ContentType carries no parameters ("application/pdf",
// "image/png", ...).
func Inspect(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return Info{}, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return Info{
		Path:        path,
		Name:        filepath.Base(path),
		Size:        fi.Size(),
		ContentType: baseType(mt),
	}, nil
}

func baseType(mt *mimetype.MIME) string {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/pdf") || m.Is("image/png") || m.Is("image/jpeg") {
			return trimParams(m.String())
		}
	}
	return trimParams(mt.String())
}

func trimParams(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ';' {
			return s[:i]
		}
	}
	return s
}
