package catops

// Mode identifies a store's category-creation policy.
type Mode string

const (
	ModeFree          Mode = "free"
	ModeSubcategories Mode = "subcategories"
	ModeStrict        Mode = "strict"
)

// ModeContext carries everything a mode-enforcing operation needs to
// know about a store's configured category hierarchy: the set of root
// segments and full paths it explicitly defines, and which of those
// paths are considered protected (undeletable) outside free mode.
type ModeContext struct {
	Mode           Mode
	AllowedRoots   []string
	AllowedPaths   []string
	ProtectedPaths []string
}

func (m ModeContext) isProtected(pathStr string) bool {
	for _, p := range m.ProtectedPaths {
		if p == pathStr {
			return true
		}
	}
	return false
}
