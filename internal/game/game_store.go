// internal/game/game_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore is the in-memory directory of live games. Entries are added by
// the lobby and removed when a game reaches game_over and drains, or when a
// host deletes it.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*AnagramsGame
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*AnagramsGame),
	}
}

func (s *GameStore) AddGame(game *AnagramsGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
}

func (s *GameStore) GetGame(id uuid.UUID) (*AnagramsGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

// DeleteGame drops the entry and stops the game's dealer if it is still
// running.
func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	g, exists := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()
	if exists {
		g.Stop()
	}
}

// ListGames returns directory details for every live game, for lobby
// listings.
func (s *GameStore) ListGames() []Details {
	s.mu.Lock()
	games := make([]*AnagramsGame, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	s.mu.Unlock()

	// Details takes each game's own lock; do it outside the store lock.
	out := make([]Details, 0, len(games))
	for _, g := range games {
		out = append(out, g.Details())
	}
	return out
}
