package posters

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
)

// ErrStorageUnavailable indicates the storage backend was not configured.
var ErrStorageUnavailable = errors.New("poster storage unavailable")

// Storage persists poster bytes and returns the public reference clients use to fetch them.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, location string) error
}

// FileStorage writes posters into a local directory served under a public path.
type FileStorage struct {
	dir        string
	publicPath string
}

// NewFileStorage returns a FileStorage rooted at dir. Saved posters are
// referenced as publicPath + "/" + name.
func NewFileStorage(dir, publicPath string) (*FileStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, oops.Code("POSTER_STORAGE_INVALID").Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, oops.Code("POSTER_STORAGE_INVALID").With("dir", dir).Wrapf(err, "create upload directory")
	}
	publicPath = "/" + strings.Trim(publicPath, "/")
	return &FileStorage{dir: dir, publicPath: publicPath}, nil
}

// Dir returns the directory posters are written to.
func (s *FileStorage) Dir() string { return s.dir }

// PublicPath returns the URL prefix posters are served under.
func (s *FileStorage) PublicPath() string { return s.publicPath }

// Save writes r to a new file named name.
func (s *FileStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if s == nil {
		return "", ErrStorageUnavailable
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", oops.Code("POSTER_SAVE_FAILED").Errorf("empty poster name")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", oops.Code("POSTER_SAVE_FAILED").With("name", name).Wrapf(err, "create poster file")
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", oops.Code("POSTER_SAVE_FAILED").With("name", name).Wrapf(err, "write poster file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", oops.Code("POSTER_SAVE_FAILED").With("name", name).Wrapf(err, "close poster file")
	}

	return path.Join(s.publicPath, name), nil
}

// Remove deletes the file behind location. Locations outside the public path
// and files that are already gone are ignored.
func (s *FileStorage) Remove(_ context.Context, location string) error {
	if s == nil {
		return ErrStorageUnavailable
	}
	if !strings.HasPrefix(location, s.publicPath+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(location, s.publicPath+"/"))
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("POSTER_REMOVE_FAILED").With("location", location).Wrapf(err, "remove poster file")
	}
	return nil
}

var _ Storage = (*FileStorage)(nil)
