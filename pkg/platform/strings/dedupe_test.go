package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trims whitespace",
			input:    []string{"  A1  ", "A2 "},
			expected: []string{"A1", "A2"},
		},
		{
			name:     "drops blanks",
			input:    []string{"A1", "", "   ", "A2"},
			expected: []string{"A1", "A2"},
		},
		{
			name:     "removes duplicates preserving first-seen order",
			input:    []string{"A2", "A1", "A2", "A3", "A1"},
			expected: []string{"A2", "A1", "A3"},
		},
		{
			name:     "case sensitive",
			input:    []string{"a1", "A1"},
			expected: []string{"a1", "A1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
