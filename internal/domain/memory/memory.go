// Package memory defines the Memory entity: an immutable markdown
// document with frontmatter metadata, addressed by a path.MemoryPath.
package memory

import (
	"fmt"
	"time"

	"github.com/cortexmemory/cortex/internal/domain/path"
)

// ErrorCode identifies the kind of memory construction failure.
type ErrorCode string

const (
	ErrInvalidPath     ErrorCode = "INVALID_PATH"
	ErrBadTimestamps   ErrorCode = "BAD_TIMESTAMPS"
	ErrEmptySource     ErrorCode = "EMPTY_SOURCE"
	ErrDuplicateTag    ErrorCode = "DUPLICATE_TAG"
	ErrEmptyCitation   ErrorCode = "EMPTY_CITATION"
)

// Error is returned by Init when a Memory's invariants are violated.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newErr(code ErrorCode, msg string) *Error { return &Error{Code: code, Msg: msg} }

// Metadata is the record of a memory's provenance and lifecycle fields.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Tags      []string
	Source    string
	ExpiresAt *time.Time
	Citations []string
}

// Memory is an immutable (path, metadata, content) triple. Updates
// produce new values; there are no mutating methods.
type Memory struct {
	path     path.MemoryPath
	metadata Metadata
	content  string
}

// Init validates path and metadata and constructs a Memory. Tags and
// citations are defensively copied.
func Init(p path.MemoryPath, meta Metadata, content string) (Memory, error) {
	if meta.UpdatedAt.Before(meta.CreatedAt) {
		return Memory{}, newErr(ErrBadTimestamps, "updatedAt must be >= createdAt")
	}
	if meta.Source == "" {
		return Memory{}, newErr(ErrEmptySource, "source must be non-empty")
	}
	seen := make(map[string]struct{}, len(meta.Tags))
	tags := make([]string, len(meta.Tags))
	for i, t := range meta.Tags {
		if _, dup := seen[t]; dup {
			return Memory{}, newErr(ErrDuplicateTag, fmt.Sprintf("duplicate tag %q", t))
		}
		seen[t] = struct{}{}
		tags[i] = t
	}
	citations := make([]string, len(meta.Citations))
	for i, c := range meta.Citations {
		if c == "" {
			return Memory{}, newErr(ErrEmptyCitation, "citations must not contain empty entries")
		}
		citations[i] = c
	}
	m := Metadata{
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Tags:      tags,
		Source:    meta.Source,
		ExpiresAt: copyTime(meta.ExpiresAt),
		Citations: citations,
	}
	return Memory{path: p, metadata: m, content: content}, nil
}

// Path returns the memory's address.
func (m Memory) Path() path.MemoryPath { return m.path }

// Metadata returns a copy of the memory's metadata.
func (m Memory) Metadata() Metadata {
	meta := m.metadata
	meta.Tags = append([]string(nil), m.metadata.Tags...)
	meta.Citations = append([]string(nil), m.metadata.Citations...)
	meta.ExpiresAt = copyTime(m.metadata.ExpiresAt)
	return meta
}

// Content returns the memory's markdown body.
func (m Memory) Content() string { return m.content }

// IsExpired reports whether the memory's expiresAt is present and <= now.
func (m Memory) IsExpired(now time.Time) bool {
	return m.metadata.ExpiresAt != nil && !m.metadata.ExpiresAt.After(now)
}

// WithContent returns a copy of m with content replaced.
func (m Memory) WithContent(content string) Memory {
	m.content = content
	return m
}

// WithMetadata returns a copy of m with metadata replaced; meta is
// assumed already-validated (callers go through memops which revalidates
// via Init when building the merged result).
func (m Memory) WithMetadata(meta Metadata) Memory {
	m.metadata = meta
	m.metadata.Tags = append([]string(nil), meta.Tags...)
	m.metadata.Citations = append([]string(nil), meta.Citations...)
	m.metadata.ExpiresAt = copyTime(meta.ExpiresAt)
	return m
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
