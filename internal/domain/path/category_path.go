package path

import "strings"

// CategoryPath is an ordered sequence of slug segments, possibly empty
// (the root category). Equality is string-equality on the canonical form.
type CategoryPath struct {
	segments []string
}

// RootCategory is the empty, depth-0 category path.
var RootCategory = CategoryPath{}

// ParseCategoryPath normalizes and validates s. Empty segments produced
// by leading/trailing/doubled slashes are dropped, so "a//b", "/a/b",
// and "a/b/" all canonicalize to "a/b". An empty or all-slash input
// parses to the root category (depth 0), not an error.
func ParseCategoryPath(s string) (CategoryPath, error) {
	raw := strings.Split(s, "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "" {
			continue
		}
		if !slugPattern.MatchString(seg) {
			return CategoryPath{}, newErr(ErrInvalidSegment, s, "category segment %q must match ^[a-z0-9]+(-[a-z0-9]+)*$")
		}
		segments = append(segments, seg)
	}
	return CategoryPath{segments: segments}, nil
}

// MustParseCategoryPath parses s and panics on error. Reserved for
// constructing constants from known-valid literals.
func MustParseCategoryPath(s string) CategoryPath {
	p, err := ParseCategoryPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Segments returns a defensive copy of the path's slug segments.
func (c CategoryPath) Segments() []string {
	out := make([]string, len(c.segments))
	copy(out, c.segments)
	return out
}

// Depth returns the number of segments; 0 for the root category.
func (c CategoryPath) Depth() int { return len(c.segments) }

// IsRoot reports whether this is the root category (depth 0).
func (c CategoryPath) IsRoot() bool { return len(c.segments) == 0 }

// String renders the canonical slash-joined form ("" for root).
func (c CategoryPath) String() string { return strings.Join(c.segments, "/") }

// Parent returns the parent category path and true, or the zero value
// and false if c is already root.
func (c CategoryPath) Parent() (CategoryPath, bool) {
	if c.IsRoot() {
		return CategoryPath{}, false
	}
	return CategoryPath{segments: append([]string(nil), c.segments[:len(c.segments)-1]...)}, true
}

// Child returns a new CategoryPath with segment appended.
func (c CategoryPath) Child(segment string) (CategoryPath, error) {
	if !slugPattern.MatchString(segment) {
		return CategoryPath{}, newErr(ErrInvalidSegment, segment, "category segment must match ^[a-z0-9]+(-[a-z0-9]+)*$")
	}
	next := make([]string, len(c.segments)+1)
	copy(next, c.segments)
	next[len(c.segments)] = segment
	return CategoryPath{segments: next}, nil
}

// RootSegment returns the first segment and true, or "" and false for root.
func (c CategoryPath) RootSegment() (string, bool) {
	if c.IsRoot() {
		return "", false
	}
	return c.segments[0], true
}

// Equal reports whether two category paths have the same canonical form.
func (c CategoryPath) Equal(other CategoryPath) bool {
	return c.String() == other.String()
}

// HasPrefix reports whether prefix's segments are a leading subsequence
// of c's segments (c itself counts as its own prefix).
func (c CategoryPath) HasPrefix(prefix CategoryPath) bool {
	if len(prefix.segments) > len(c.segments) {
		return false
	}
	for i, seg := range prefix.segments {
		if c.segments[i] != seg {
			return false
		}
	}
	return true
}

// LowestCommonAncestor returns the deepest category path that is a
// prefix of both a and b.
func LowestCommonAncestor(a, b CategoryPath) CategoryPath {
	n := len(a.segments)
	if len(b.segments) < n {
		n = len(b.segments)
	}
	i := 0
	for i < n && a.segments[i] == b.segments[i] {
		i++
	}
	return CategoryPath{segments: append([]string(nil), a.segments[:i]...)}
}
