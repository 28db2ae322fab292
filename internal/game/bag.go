// internal/game/bag.go
package game

import (
	"math/rand"
	"strings"
)

// letterFrequencies is the full tile set for one game, weighted roughly by
// English letter frequency. 143 tiles total.
const letterFrequencies = "AAAAAAAAAAAAABBBCCCDDDDDDEEEEEEEEEEEEEEEEEEFFFGGGGHHHIIIIIIIIIIIJJKKLLLLLMMMNNNNNNNNOOOOOOOOOOOPPPQQRRRRRRRRRSSSSSSTTTTTTTTTUUUUUUVVVWWWXXYYYZZ"

// Bag is the undrawn letter supply. It is shuffled once at construction and
// only ever shrinks; exhaustion is terminal for dealing.
type Bag struct {
	letters []string
}

// NewBag builds a shuffled bag from the fixed frequency table, lower-cased.
func NewBag() *Bag {
	letters := strings.Split(strings.ToLower(letterFrequencies), "")
	rand.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})
	return &Bag{letters: letters}
}

// Draw removes and returns one letter, or ok=false once the bag is empty.
func (b *Bag) Draw() (string, bool) {
	if len(b.letters) == 0 {
		return "", false
	}
	l := b.letters[len(b.letters)-1]
	b.letters = b.letters[:len(b.letters)-1]
	return l, true
}

// Remaining returns the number of undrawn letters.
func (b *Bag) Remaining() int {
	return len(b.letters)
}
