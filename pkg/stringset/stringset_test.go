package stringset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifference(t *testing.T) {
	tests := []struct {
		name     string
		a        []string
		b        []string
		expected []string
	}{
		{
			name:     "disjoint sets",
			a:        []string{"lb-1", "lb-2"},
			b:        []string{"lb-3"},
			expected: []string{"lb-1", "lb-2"},
		},
		{
			name:     "overlap removed",
			a:        []string{"lb-1", "lb-2", "lb-3"},
			b:        []string{"lb-2"},
			expected: []string{"lb-1", "lb-3"},
		},
		{
			name:     "identical sets",
			a:        []string{"lb-1"},
			b:        []string{"lb-1"},
			expected: nil,
		},
		{
			name:     "empty a",
			a:        nil,
			b:        []string{"lb-1"},
			expected: nil,
		},
		{
			name:     "empty b",
			a:        []string{"lb-1"},
			b:        nil,
			expected: []string{"lb-1"},
		},
		{
			name:     "order of a preserved",
			a:        []string{"lb-3", "lb-1", "lb-2"},
			b:        []string{"lb-1"},
			expected: []string{"lb-3", "lb-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Difference(tt.a, tt.b))
		})
	}
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Unique([]string{"a", "b", "a", "c", "b"}))
	assert.Nil(t, Unique(nil))
	assert.Equal(t, []string{"a"}, Unique([]string{"a", "a", "a"}))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains(nil, "a"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal([]string{"a", "b"}, []string{"a", "b"}))
	assert.False(t, Equal([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, Equal([]string{"a"}, []string{"a", "b"}))
	assert.True(t, Equal(nil, nil))
}
