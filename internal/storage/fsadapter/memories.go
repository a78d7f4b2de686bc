package fsadapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cortexmemory/cortex/internal/domain/memory"
	cpath "github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// memoriesFacet implements storage.Memories against a directory tree
// rooted at root, one markdown file per memory.
type memoriesFacet struct {
	root string
}

func (f *memoriesFacet) Load(ctx context.Context, p cpath.MemoryPath) (*memory.Memory, error) {
	raw, err := os.ReadFile(memoryFilePath(f.root, p))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.NewAdapterError(storage.ErrIORead, fmt.Sprintf("read memory %s", p.String()), err)
	}
	parsed, err := parseMemoryFile(string(raw))
	if err != nil {
		return nil, storage.NewAdapterError(storage.ErrIORead, fmt.Sprintf("parse memory %s", p.String()), err)
	}
	m, err := memory.Init(p, memory.Metadata{
		CreatedAt: parsed.CreatedAt,
		UpdatedAt: parsed.UpdatedAt,
		Tags:      parsed.Tags,
		Source:    parsed.Source,
		ExpiresAt: parsed.ExpiresAt,
		Citations: parsed.Citations,
	}, parsed.Body)
	if err != nil {
		return nil, storage.NewAdapterError(storage.ErrIORead, fmt.Sprintf("invalid memory %s on disk", p.String()), err)
	}
	return &m, nil
}

func (f *memoriesFacet) Save(ctx context.Context, p cpath.MemoryPath, m memory.Memory) error {
	if !categoryExistsOnDisk(f.root, p.Category()) {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s does not exist", p.Category().String()), nil)
	}
	// Carry over unknown frontmatter keys from the file being overwritten.
	var extra map[string]any
	if raw, err := os.ReadFile(memoryFilePath(f.root, p)); err == nil {
		if prev, err := parseMemoryFile(string(raw)); err == nil {
			extra = prev.Extra
		}
	}
	meta := m.Metadata()
	text, err := renderMemoryFile(parsedMemoryFile{
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Tags:      meta.Tags,
		Source:    meta.Source,
		ExpiresAt: meta.ExpiresAt,
		Citations: meta.Citations,
		Extra:     extra,
		Body:      m.Content(),
	})
	if err != nil {
		return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("render memory %s", p.String()), err)
	}
	if err := writeFileAtomic(memoryFilePath(f.root, p), []byte(text)); err != nil {
		return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("write memory %s", p.String()), err)
	}
	return nil
}

func (f *memoriesFacet) Remove(ctx context.Context, p cpath.MemoryPath) error {
	err := os.Remove(memoryFilePath(f.root, p))
	if errors.Is(err, os.ErrNotExist) {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("memory %s not found", p.String()), nil)
	}
	if err != nil {
		return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("remove memory %s", p.String()), err)
	}
	return nil
}

func (f *memoriesFacet) Move(ctx context.Context, source, dest cpath.MemoryPath) error {
	srcPath := memoryFilePath(f.root, source)
	if _, err := os.Stat(srcPath); errors.Is(err, os.ErrNotExist) {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("memory %s not found", source.String()), nil)
	} else if err != nil {
		return storage.NewAdapterError(storage.ErrIORead, fmt.Sprintf("stat memory %s", source.String()), err)
	}
	destPath := memoryFilePath(f.root, dest)
	if _, err := os.Stat(destPath); err == nil {
		return storage.NewAdapterError(storage.ErrAlreadyExists, fmt.Sprintf("memory %s already exists", dest.String()), nil)
	}
	if !categoryExistsOnDisk(f.root, dest.Category()) {
		return storage.NewAdapterError(storage.ErrNotFound, fmt.Sprintf("category %s does not exist", dest.Category().String()), nil)
	}
	if err := ensureDir(categoryDir(f.root, dest.Category())); err != nil {
		return storage.NewAdapterError(storage.ErrIOWrite, "prepare destination directory", err)
	}
	if err := os.Rename(srcPath, destPath); err != nil {
		return storage.NewAdapterError(storage.ErrIOWrite, fmt.Sprintf("move %s to %s", source.String(), dest.String()), err)
	}
	return nil
}
