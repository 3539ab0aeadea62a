package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil stays nil", input: nil, expected: nil},
		{name: "empty stays empty", input: []string{}, expected: []string{}},
		{name: "drops blanks", input: []string{"", "   ", "\t"}, expected: []string{}},
		{name: "collapses inner whitespace", input: []string{"  distributed   systems "}, expected: []string{"distributed systems"}},
		{name: "first spelling wins", input: []string{"Go", "go", "GO", "Rust"}, expected: []string{"Go", "Rust"}},
		{name: "order preserved", input: []string{"sql", "kafka", "SQL", "redis"}, expected: []string{"sql", "kafka", "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeFold(tt.input))
		})
	}
}
