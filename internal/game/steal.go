// internal/game/steal.go
package game

import "github.com/snatchgame/snatch/internal/words"

// letterCounts builds the letter multiset of w.
func letterCounts(w string) map[string]int {
	counts := make(map[string]int, len(w))
	for _, r := range w {
		counts[string(r)]++
	}
	return counts
}

// consumeFromPot removes the letters of need from pot one token at a time.
// It returns the remaining pot and true, or nil and false on any shortfall.
// The input pot is never mutated.
func consumeFromPot(pot []string, need map[string]int) ([]string, bool) {
	remaining := make([]string, len(pot))
	copy(remaining, pot)

	for letter, count := range need {
		for ; count > 0; count-- {
			found := false
			for i, l := range remaining {
				if l == letter {
					remaining = append(remaining[:i], remaining[i+1:]...)
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		}
	}
	return remaining, true
}

// potSteal tests whether candidate can be formed from the pot alone.
// On success it returns the pot with the consumed letters removed.
func potSteal(candidate string, pot []string) ([]string, bool) {
	return consumeFromPot(pot, letterCounts(candidate))
}

// extendSteal tests whether candidate can be formed by taking existing off a
// board and adding pot letters. candidate must be strictly longer, must not
// be a trivial inflection of existing per eq, its multiset must contain
// existing's, and the difference must be satisfiable from the pot. On
// success it returns the pot with the difference removed.
func extendSteal(existing, candidate string, pot []string, eq words.Equivalence) ([]string, bool) {
	if len(candidate) <= len(existing) {
		return nil, false
	}
	if eq.SameLemma(existing, candidate) {
		return nil, false
	}

	need := letterCounts(candidate)
	for _, r := range existing {
		letter := string(r)
		if need[letter] == 0 {
			return nil, false
		}
		need[letter]--
	}
	return consumeFromPot(pot, need)
}
