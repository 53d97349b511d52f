package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeGenerator_Clamps(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero uses default", 0, DefaultCodeLength},
		{"negative uses default", -3, DefaultCodeLength},
		{"too short", 2, MinCodeLength},
		{"in range", 8, 8},
		{"too long", 100, MaxCodeLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCodeGenerator(tt.in).length)
		})
	}
}

func TestCodeGenerator_Generate(t *testing.T) {
	g := NewCodeGenerator(6)
	g.seed = func() string { return "fixed-seed" }

	first := g.Generate(0)
	require.Len(t, first, 6)
	assert.Equal(t, first, g.Generate(0), "same seed gives the same code")

	for _, r := range first {
		assert.True(t, strings.ContainsRune(elements, r), "unexpected rune %q", r)
	}

	assert.Len(t, g.Generate(2), 6)
	assert.Len(t, g.Generate(3), 7)
	assert.Len(t, g.Generate(6), 8)
	assert.True(t, strings.HasPrefix(g.Generate(3), first), "wider codes extend the same digest")
	assert.Len(t, g.Generate(1000), MaxCodeLength)
}

func TestCodeGenerator_FreshSeeds(t *testing.T) {
	g := NewCodeGenerator(8)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		seen[g.Generate(0)] = struct{}{}
	}

	assert.Len(t, seen, 500)
}

func TestToBase62(t *testing.T) {
	assert.Equal(t, "", toBase62([]byte{0}))
	assert.Equal(t, "1", toBase62([]byte{1}))
	assert.Equal(t, "10", toBase62([]byte{62}))
	assert.Equal(t, "Z", toBase62([]byte{61}))
	assert.Len(t, hashToShort("anything", MaxCodeLength), MaxCodeLength)
}
