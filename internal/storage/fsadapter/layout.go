package fsadapter

import (
	"os"
	"path/filepath"
	"strings"

	cpath "github.com/cortexmemory/cortex/internal/domain/path"
)

const (
	memoryDirName = "memory"
	indexFileName = "index.yaml"
)

// categoryDir returns the on-disk directory for a category path,
// relative to the store root: <root>/memory/<seg>/.../.
func categoryDir(root string, c cpath.CategoryPath) string {
	segs := c.Segments()
	parts := append([]string{root, memoryDirName}, segs...)
	return filepath.Join(parts...)
}

// indexPath returns the on-disk path of a category's index.yaml.
func indexPath(root string, c cpath.CategoryPath) string {
	return filepath.Join(categoryDir(root, c), indexFileName)
}

// memoryFilePath returns the on-disk path of a memory's markdown file.
func memoryFilePath(root string, m cpath.MemoryPath) string {
	return filepath.Join(categoryDir(root, m.Category()), m.Slug().String()+".md")
}

// categoryExistsOnDisk reports whether both the category's directory
// and its index.yaml are present, per §4.4.
func categoryExistsOnDisk(root string, c cpath.CategoryPath) bool {
	dir := categoryDir(root, c)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return false
	}
	if info, err := os.Stat(indexPath(root, c)); err != nil || info.IsDir() {
		return false
	}
	return true
}

// looksLikeCategoryDir reports whether name is a valid category
// segment (used while walking directories during reindex/list).
func looksLikeCategoryDir(name string) bool {
	return cpath.IsValidSlug(name)
}

// childSegment extracts the last path segment of a slash-joined string.
func childSegment(s string) string {
	idx := strings.LastIndex(s, "/")
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}
