package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxImageBytes = 5 << 20

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// FileStorage keeps uploaded images in a flat directory under random names.
type FileStorage struct {
	Dir string
}

func NewFileStorage(dir string) *FileStorage { return &FileStorage{Dir: dir} }

// Save copies r to <uuid><ext> and returns the stored name.
func (s *FileStorage) Save(original string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if !imageExts[ext] {
		return "", ErrBadImage
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, io.LimitReader(r, maxImageBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxImageBytes {
		err = fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.Dir, name))
		return "", err
	}
	return name, nil
}

// Delete removes a stored file; a missing file is not an error.
func (s *FileStorage) Delete(name string) error {
	if name == "" {
		return nil
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("refusing to delete %q", name)
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
