package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pscheid92/countdown/internal/domain"
)

// LocalURLPrefix is the route that serves LocalStore objects.
const LocalURLPrefix = "/uploads/"

// ErrUnsafeKey is returned for keys that are not a single plain path segment.
var ErrUnsafeKey = errors.New("unsafe blob key")

// LocalStore keeps uploads as files in one directory.
type LocalStore struct {
	dir string
}

var _ domain.BlobStore = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a partial image.
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", key, err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) string {
	return LocalURLPrefix + url.PathEscape(key)
}

func (s *LocalStore) Check(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("upload directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload directory %s is not a directory", s.dir)
	}
	return nil
}

// Path resolves key to a file inside the upload directory. It returns
// fs.ErrNotExist for keys that do not exist and ErrUnsafeKey for keys that
// would escape the directory.
func (s *LocalStore) Path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, ".") ||
		strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return "", fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

// Open returns the stored file for serving.
func (s *LocalStore) Open(key string) (*os.File, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open %s: %w", key, fs.ErrNotExist)
	}
	return f, nil
}
