package shortid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		assert.Len(t, id, Length)
		assert.True(t, ValidSlug(id), "generated id must match the slug alphabet: %q", id)
		assert.False(t, seen[id], "generated ids should not repeat: %q", id)
		seen[id] = true
	}
}

func TestValidSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"my-link", true},
		{"my_link_2", true},
		{"AbC123", true},
		{"", false},
		{"with space", false},
		{"slash/slug", false},
		{"dot.slug", false},
		{"émoji", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidSlug(tt.slug))
		})
	}
}
