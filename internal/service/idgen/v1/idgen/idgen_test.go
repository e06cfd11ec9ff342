package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	gen := InitGenerator()

	code := gen.NewCode(0)
	assert.Len(t, code, DefaultCodeLength)

	code = gen.NewCode(10)
	assert.Len(t, code, 10)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(codeAlphabet, r))
	}
}

func TestNewID(t *testing.T) {
	gen := InitGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.NewID()
		require.NotEmpty(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}
