package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Spool writes downloaded payloads under a single directory and removes them.
type Spool struct {
	dir string
}

// NewSpool creates a spool rooted at dir. An empty dir uses os.TempDir().
func NewSpool(dir string) (*Spool, error) {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve spool dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{dir: abs}, nil
}

// Dir returns the absolute spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Write copies at most maxBytes from reader into a new file with ext.
// Nothing is left on disk when it fails.
func (s *Spool) Write(reader io.Reader, maxBytes int64, ext string) (string, int64, error) {
	if reader == nil {
		return "", 0, fmt.Errorf("reader is required")
	}
	if maxBytes <= 0 {
		maxBytes = MaxAssetBytes
	}
	path := filepath.Join(s.dir, "sitechief-"+uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create spool file: %w", err)
	}
	keep := false
	defer func() {
		_ = f.Close()
		if !keep {
			_ = os.Remove(path)
		}
	}()

	written, err := io.Copy(f, &io.LimitedReader{R: reader, N: maxBytes + 1})
	if err != nil {
		return "", 0, fmt.Errorf("copy to spool file: %w", err)
	}
	if written > maxBytes {
		return "", 0, fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, maxBytes)
	}
	if written == 0 {
		return "", 0, ErrEmptyPayload
	}
	keep = true
	return path, written, nil
}

// Remove deletes a spooled file. Paths outside the spool are refused.
func (s *Spool) Remove(path string) error {
	clean := filepath.Clean(path)
	rel, err := filepath.Rel(s.dir, clean)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return ErrPathTraversal
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
