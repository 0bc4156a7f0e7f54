package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("poem")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "poem-"))
	// prefix + dash + 21-char NanoID
	assert.Len(t, got, len("poem-")+21)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		got, err := Generate("book")
		require.NoError(t, err)
		assert.False(t, seen[got], "duplicate ID generated: %s", got)
		seen[got] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		got := MustGenerate("ch")
		assert.True(t, strings.HasPrefix(got, "ch-"))
	})
}
