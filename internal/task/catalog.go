package task

// Tag is a catalog entry. Color is a presentation hint for the render layer.
type Tag struct {
	ID    string
	Label string
	Color string
}

var catalog = []Tag{
	{ID: "work", Label: "Work", Color: "#1E40AF"},
	{ID: "personal", Label: "Personal", Color: "#166534"},
	{ID: "urgent", Label: "Urgent", Color: "#991B1B"},
	{ID: "shopping", Label: "Shopping", Color: "#6B21A8"},
	{ID: "health", Label: "Health", Color: "#9A3412"},
	{ID: "finance", Label: "Finance", Color: "#854D0E"},
}

// Catalog returns the fixed tag catalog in display order.
func Catalog() []Tag {
	return append([]Tag(nil), catalog...)
}

// ResolveTag looks up a catalog entry. A miss is not an error: callers
// leave unresolved tags out of anything they display.
func ResolveTag(id string) (Tag, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// NormalizeTags keeps catalog tags only, drops duplicates and preserves the
// order of first appearance. The result is never nil.
func NormalizeTags(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := ResolveTag(id); !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
