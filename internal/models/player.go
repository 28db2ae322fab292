package models

import "github.com/google/uuid"

// Player is one participant in a running game. Score is only filled in when
// the game ends (number of words left on the player's board).
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Connected bool      `json:"connected"`
}
