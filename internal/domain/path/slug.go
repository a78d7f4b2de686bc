package path

import "regexp"

// slugPattern is the canonical slug shape: lowercase alphanumerics
// joined by single hyphens, no leading/trailing/double hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Slug is a validated lowercase identifier used for store names,
// category segments, and memory names.
type Slug struct {
	value string
}

// ParseSlug validates s and returns a Slug, or an *Error describing why
// it was rejected.
func ParseSlug(s string) (Slug, error) {
	if s == "" {
		return Slug{}, newErr(ErrEmpty, s, "slug must not be empty")
	}
	if !slugPattern.MatchString(s) {
		return Slug{}, newErr(ErrInvalidSegment, s, "slug must match ^[a-z0-9]+(-[a-z0-9]+)*$")
	}
	return Slug{value: s}, nil
}

// IsValidSlug reports whether s would be accepted by ParseSlug, without
// allocating a Slug value.
func IsValidSlug(s string) bool {
	return s != "" && slugPattern.MatchString(s)
}

// String renders the canonical form of the slug.
func (s Slug) String() string { return s.value }

// IsZero reports whether s is the zero value (never produced by ParseSlug).
func (s Slug) IsZero() bool { return s.value == "" }
