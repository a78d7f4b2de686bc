package fsadapter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// frontmatterFields are the reserved keys the domain understands (§6).
// Any other key present in a file's frontmatter is preserved verbatim
// on rewrite but never surfaced past this package.
var frontmatterFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"tags":      true,
	"source":    true,
	"expiresAt": true,
	"citations": true,
}

// parsedMemoryFile is the raw result of splitting a memory file into
// its frontmatter block and body, before domain validation.
type parsedMemoryFile struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Tags      []string
	Source    string
	ExpiresAt *time.Time
	Citations []string
	Extra     map[string]any
	Body      string
}

// parseMemoryFile splits raw into a frontmatter block and body and
// decodes the reserved fields.
func parseMemoryFile(raw string) (parsedMemoryFile, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelim {
		return parsedMemoryFile{}, fmt.Errorf("memory file missing opening %q delimiter", frontmatterDelim)
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelim {
			end = i
			break
		}
	}
	if end == -1 {
		return parsedMemoryFile{}, fmt.Errorf("memory file missing closing %q delimiter", frontmatterDelim)
	}
	fmBlock := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")
	body = strings.TrimPrefix(body, "\n")

	var raw2 map[string]any
	if strings.TrimSpace(fmBlock) != "" {
		if err := yaml.Unmarshal([]byte(fmBlock), &raw2); err != nil {
			return parsedMemoryFile{}, fmt.Errorf("parse frontmatter: %w", err)
		}
	}

	out := parsedMemoryFile{Body: body, Extra: map[string]any{}}
	for k, v := range raw2 {
		if !frontmatterFields[k] {
			out.Extra[k] = v
			continue
		}
	}

	if v, ok := raw2["createdAt"]; ok {
		t, err := parseTimeValue(v)
		if err != nil {
			return parsedMemoryFile{}, fmt.Errorf("createdAt: %w", err)
		}
		out.CreatedAt = t
	} else {
		return parsedMemoryFile{}, fmt.Errorf("frontmatter missing required field createdAt")
	}
	if v, ok := raw2["updatedAt"]; ok {
		t, err := parseTimeValue(v)
		if err != nil {
			return parsedMemoryFile{}, fmt.Errorf("updatedAt: %w", err)
		}
		out.UpdatedAt = t
	} else {
		return parsedMemoryFile{}, fmt.Errorf("frontmatter missing required field updatedAt")
	}
	if v, ok := raw2["source"]; ok {
		s, _ := v.(string)
		out.Source = s
	} else {
		return parsedMemoryFile{}, fmt.Errorf("frontmatter missing required field source")
	}
	if v, ok := raw2["tags"]; ok {
		out.Tags = toStringSlice(v)
	}
	if v, ok := raw2["expiresAt"]; ok && v != nil {
		t, err := parseTimeValue(v)
		if err != nil {
			return parsedMemoryFile{}, fmt.Errorf("expiresAt: %w", err)
		}
		out.ExpiresAt = &t
	}
	if v, ok := raw2["citations"]; ok {
		out.Citations = toStringSlice(v)
	}
	return out, nil
}

// renderMemoryFile serializes a parsedMemoryFile back to its on-disk
// text form. Reserved fields are written in a fixed order; extras are
// appended sorted by key so round-trips are stable.
func renderMemoryFile(p parsedMemoryFile) (string, error) {
	doc := make(map[string]any, len(p.Extra)+6)
	doc["createdAt"] = p.CreatedAt.UTC().Format(time.RFC3339)
	doc["updatedAt"] = p.UpdatedAt.UTC().Format(time.RFC3339)
	doc["source"] = p.Source
	doc["tags"] = nonNilStrings(p.Tags)
	if p.ExpiresAt != nil {
		doc["expiresAt"] = p.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if len(p.Citations) > 0 {
		doc["citations"] = p.Citations
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(frontmatterDelim)
	sb.WriteString("\n")
	ordered := []string{"createdAt", "updatedAt", "tags", "source"}
	if p.ExpiresAt != nil {
		ordered = append(ordered, "expiresAt")
	}
	if len(p.Citations) > 0 {
		ordered = append(ordered, "citations")
	}
	ordered = append(ordered, keys...)

	for _, k := range ordered {
		v, ok := doc[k]
		if !ok {
			v = p.Extra[k]
		}
		line, err := yaml.Marshal(map[string]any{k: v})
		if err != nil {
			return "", fmt.Errorf("render frontmatter field %q: %w", k, err)
		}
		sb.WriteString(string(line))
	}
	sb.WriteString(frontmatterDelim)
	sb.WriteString("\n")
	sb.WriteString(p.Body)
	return sb.String(), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func parseTimeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339, t)
	default:
		return time.Time{}, fmt.Errorf("expected RFC3339 timestamp, got %T", v)
	}
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	default:
		return nil
	}
}
