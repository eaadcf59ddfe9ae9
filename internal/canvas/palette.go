package canvas

// DefaultPalette holds the colors handed out to participants, in assignment
// preference order.
var DefaultPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8",
	"#F7DC6F", "#BB8FCE", "#85C1E2", "#F8B88B", "#52B788",
}

// AssignColor returns the first palette entry not present in used. When every
// entry is taken the first entry is returned again; rooms with more
// participants than palette colors see duplicates, which is accepted
// degraded behavior rather than an error.
func AssignColor(used []string) string {
	inUse := make(map[string]bool, len(used))
	for _, c := range used {
		inUse[c] = true
	}
	for _, c := range DefaultPalette {
		if !inUse[c] {
			return c
		}
	}
	return DefaultPalette[0]
}
