// internal/game/board.go
package game

import "github.com/snatchgame/snatch/internal/models"

// PlayerBoard is one player's claimed words, in claim order. The order is
// display-only; correctness never depends on it.
type PlayerBoard struct {
	Player *models.Player `json:"player"`
	Words  []string       `json:"words"`
}

func newBoard(p *models.Player) *PlayerBoard {
	return &PlayerBoard{Player: p, Words: []string{}}
}

func (b *PlayerBoard) addWord(w string) {
	b.Words = append(b.Words, w)
}

// removeWord removes the first occurrence of w, reporting whether it was present.
func (b *PlayerBoard) removeWord(w string) bool {
	for i, existing := range b.Words {
		if existing == w {
			b.Words = append(b.Words[:i], b.Words[i+1:]...)
			return true
		}
	}
	return false
}

func (b *PlayerBoard) hasWord(w string) bool {
	for _, existing := range b.Words {
		if existing == w {
			return true
		}
	}
	return false
}
