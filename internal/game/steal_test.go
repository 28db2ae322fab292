// internal/game/steal_test.go
package game

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snatchgame/snatch/internal/words"
)

func TestBagComposition(t *testing.T) {
	bag := NewBag()
	require.Equal(t, 143, bag.Remaining())

	counts := make(map[string]int)
	for {
		l, ok := bag.Draw()
		if !ok {
			break
		}
		assert.Equal(t, strings.ToLower(l), l, "tiles are lower-cased")
		counts[l]++
	}
	assert.Equal(t, 0, bag.Remaining())

	// Spot-check the frequency weighting.
	assert.Equal(t, 18, counts["e"])
	assert.Equal(t, 13, counts["a"])
	assert.Equal(t, 2, counts["q"])
	assert.Equal(t, 2, counts["z"])
}

func TestConsumeFromPot(t *testing.T) {
	pot := []string{"t", "r", "e", "a", "t"}

	remaining, ok := consumeFromPot(pot, letterCounts("tea"))
	require.True(t, ok)
	sort.Strings(remaining)
	assert.Equal(t, []string{"r", "t"}, remaining)
	assert.Equal(t, []string{"t", "r", "e", "a", "t"}, pot, "input pot is never mutated")

	// Duplicate letters consume distinct tokens.
	_, ok = consumeFromPot([]string{"t", "a"}, letterCounts("tat"))
	assert.False(t, ok)

	_, ok = consumeFromPot(pot, letterCounts("treats"))
	assert.False(t, ok)
}

func TestPotSteal(t *testing.T) {
	remaining, ok := potSteal("cat", []string{"x", "c", "a", "t"})
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, remaining)

	_, ok = potSteal("cat", []string{"c", "a"})
	assert.False(t, ok)
}

func TestExtendSteal(t *testing.T) {
	eq := words.SuffixEquivalence{}

	remaining, ok := extendSteal("eat", "treat", []string{"t", "r", "x"}, eq)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, remaining)

	// Candidate must be strictly longer.
	_, ok = extendSteal("tar", "rat", []string{"r", "a", "t"}, eq)
	assert.False(t, ok)

	// A trivial inflection of the existing word is not a steal.
	_, ok = extendSteal("cat", "cats", []string{"s"}, eq)
	assert.False(t, ok)

	// Candidate must contain every letter of the existing word.
	_, ok = extendSteal("cat", "star", []string{"s", "t", "a", "r"}, eq)
	assert.False(t, ok)

	// The difference must be coverable by the pot.
	_, ok = extendSteal("eat", "treat", []string{"t", "x"}, eq)
	assert.False(t, ok)
}
