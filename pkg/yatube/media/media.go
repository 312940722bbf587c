package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/media/"

const postsDir = "posts"

// Storage keeps uploaded post images on the local filesystem.
type Storage struct {
	root string
}

// NewStorage creates a storage rooted at dir.
func NewStorage(dir string) *Storage {
	return &Storage{root: dir}
}

// Root returns the directory files are stored under.
func (s *Storage) Root() string {
	return s.root
}

// Save writes the upload under posts/ with a random name and returns the
// path relative to the media root.
func (s *Storage) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	// The extension comes from the content, never from the client's file name,
	// so a sniffed image is always served with an image type.
	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	ext := mtype.Extension()

	dir := filepath.Join(s.root, postsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return path.Join(postsDir, name), nil
}

// Remove deletes a file previously returned by Save. A missing file is not an error.
func (s *Storage) Remove(rel string) error {
	if rel == "" || !strings.HasPrefix(rel, postsDir+"/") || strings.Contains(rel, "..") {
		return fmt.Errorf("refusing to remove %q", rel)
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// URL maps a stored relative path to its public URL.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return URLPrefix + rel
}
