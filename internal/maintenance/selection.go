package maintenance

import "strings"

// ParseTableList splits a comma-separated list of table names.
// Blank entries are dropped and surrounding whitespace is trimmed.
func ParseTableList(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SelectTables intersects requested with discovered.
// Selected names keep discovery order. Each requested name that was not
// discovered is returned once in missing, in request order.
func SelectTables(discovered, requested []string) (selected, missing []string) {
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}

	found := make(map[string]bool, len(discovered))
	for _, name := range discovered {
		if want[name] && !found[name] {
			selected = append(selected, name)
		}
		found[name] = true
	}

	reported := make(map[string]bool)
	for _, name := range requested {
		if found[name] || reported[name] {
			continue
		}
		reported[name] = true
		missing = append(missing, name)
	}
	return selected, missing
}
