package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageDir is the media subdirectory post images are written to.
const ImageDir = "posts"

// SaveImage writes an already validated image under root and returns its
// path relative to root, e.g. posts/20240101-<uuid>.png.
func SaveImage(root string, data []byte, ext string) (string, error) {
	dir := filepath.Join(root, ImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102"),
		uuid.New().String(),
		strings.ToLower(ext),
	)
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return ImageDir + "/" + filename, nil
}

// DeleteImage removes a stored image. Paths that escape root and files that
// are already gone are ignored.
func DeleteImage(root, rel string) error {
	if rel == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil
	}
	err := os.Remove(filepath.Join(root, clean))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
