package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the parent directory of path if needed.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// FormatFromPath guesses an output format from a filename extension,
// falling back to jpg.
func FormatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return "png"
	case "webp":
		return "webp"
	case "jpg", "jpeg":
		return "jpg"
	default:
		return "jpg"
	}
}
