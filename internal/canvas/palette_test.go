package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignColorSkipsUsed(t *testing.T) {
	assert.Equal(t, DefaultPalette[0], AssignColor(nil))
	assert.Equal(t, DefaultPalette[1], AssignColor([]string{DefaultPalette[0]}))
	assert.Equal(t, DefaultPalette[0], AssignColor([]string{DefaultPalette[1]}))
}

func TestAssignColorDistinctUpToCapacity(t *testing.T) {
	used := make([]string, 0, len(DefaultPalette))
	seen := make(map[string]bool)

	for i := 0; i < len(DefaultPalette); i++ {
		c := AssignColor(used)
		assert.False(t, seen[c], "color %s assigned twice", c)
		seen[c] = true
		used = append(used, c)
	}
}

func TestAssignColorExhaustedFallsBack(t *testing.T) {
	// Palette exhausted: the first entry is reused, by design.
	assert.Equal(t, DefaultPalette[0], AssignColor(DefaultPalette))
}
